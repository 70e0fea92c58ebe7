package main

import (
	"fmt"

	"github.com/hupe1980/gramsearch"
	"github.com/hupe1980/gramsearch/internal/config"
	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "gramsearch",
		Usage: "build, search and serve a gram index of chat logs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (default ./gramsearch.yaml)"},
			&cli.StringFlag{Name: "source", Usage: "index source kind: local, http, s3, minio"},
			&cli.StringFlag{Name: "root", Usage: "root directory of a local index"},
			&cli.StringFlag{Name: "url", Usage: "base URL of a published index"},
			&cli.StringFlag{Name: "bucket", Usage: "bucket of an s3 or minio index"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Commands: []*cli.Command{
			searchCommand(),
			shellCommand(),
			channelsCommand(),
			buildCommand(),
			serveCommand(),
		},
	}
}

// flagKeys maps global flags onto configuration keys.
var flagKeys = map[string]string{
	"source":    "source.kind",
	"root":      "source.root",
	"url":       "source.url",
	"bucket":    "source.bucket",
	"log-level": "log.level",
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	v := config.New()
	for flag, key := range flagKeys {
		if c.IsSet(flag) {
			v.Set(key, c.String(flag))
		}
	}
	return config.Load(v, c.String("config"))
}

func openEngine(c *cli.Context, cfg *config.Config, extra ...gramsearch.Option) (*gramsearch.Engine, error) {
	store, err := cfg.OpenStore(c.Context)
	if err != nil {
		return nil, err
	}
	opts := append(cfg.EngineOptions(), gramsearch.WithLogger(cfg.Logger()))
	eng, err := gramsearch.Open(c.Context, store, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return eng, nil
}
