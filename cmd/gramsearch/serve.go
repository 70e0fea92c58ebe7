package main

import (
	"github.com/hupe1980/gramsearch"
	"github.com/hupe1980/gramsearch/internal/server"
	gsprom "github.com/hupe1980/gramsearch/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "serve a generated archive with a search API for development",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (default server.addr)"},
			&cli.StringFlag{Name: "htdocs", Usage: "root of static files (default server.htdocs)"},
			&cli.StringFlag{Name: "proxy-target", Usage: "upstream for /files/ and /emojis/"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			logger := cfg.Logger()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			eng, err := openEngine(c, cfg, gramsearch.WithMetricsCollector(gsprom.New(reg)))
			if err != nil {
				return err
			}
			defer eng.Close()

			srv := server.New(eng, func(o *server.Options) {
				o.Addr = cfg.Server.Addr
				if c.IsSet("addr") {
					o.Addr = c.String("addr")
				}
				o.Htdocs = cfg.Server.Htdocs
				if c.IsSet("htdocs") {
					o.Htdocs = c.String("htdocs")
				}
				o.ProxyTarget = c.String("proxy-target")
				o.DefaultLimit = cfg.Render.Limit
				o.Location = loc
				o.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
				o.Logger = logger.WithComponent("server").Logger
			})
			return srv.ListenAndServe(c.Context)
		},
	}
}
