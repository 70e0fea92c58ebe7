package main

import (
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/gramsearch/blobstore"
	"github.com/hupe1980/gramsearch/indexer"
	"github.com/urfave/cli/v2"
)

func buildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "build an index from a JSON Lines message feed",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Value: "-", Usage: "message feed, - for stdin"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Required: true, Usage: "output directory"},
			&cli.StringFlag{Name: "prefix", Value: "index", Usage: "index directory inside out"},
			&cli.StringFlag{Name: "compression", Value: "none", Usage: "none, gzip, zstd or lz4"},
			&cli.IntFlag{Name: "gram-size", Value: 2, Usage: "longest gram indexed"},
			&cli.IntFlag{Name: "concurrency", Usage: "parallel shard writers (0 = GOMAXPROCS)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger := cfg.Logger()

			comp, err := blobstore.ParseCompression(c.String("compression"))
			if err != nil {
				return err
			}

			var in io.Reader = c.App.Reader
			if name := c.String("input"); name != "-" {
				f, err := os.Open(name)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			msgs, err := indexer.ReadMessages(in, nil)
			if err != nil {
				return err
			}

			b := indexer.New(func(o *indexer.Options) {
				o.GramSize = c.Int("gram-size")
				o.Prefix = c.String("prefix")
				if n := c.Int("concurrency"); n > 0 {
					o.Concurrency = n
				}
				o.Logger = logger.WithComponent("indexer").Logger
			})
			for _, m := range msgs {
				if err := b.Add(m); err != nil {
					return err
				}
			}

			var dst blobstore.Putter = blobstore.NewLocalStore(c.String("out"))
			if comp != blobstore.CompressionNone {
				dst = blobstore.Compressed(blobstore.NewLocalStore(c.String("out")), comp)
			}
			stats, err := b.Write(c.Context, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%d channels, %d messages, %d shards, %d bytes\n",
				stats.Channels, stats.Messages, stats.Shards, stats.Bytes)
			return nil
		},
	}
}
