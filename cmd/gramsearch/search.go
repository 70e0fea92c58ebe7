package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/gramsearch"
	"github.com/hupe1980/gramsearch/codec"
	"github.com/hupe1980/gramsearch/search"
	"github.com/urfave/cli/v2"
)

type hitView struct {
	Doc         string   `json:"doc" yaml:"doc"`
	ChannelID   string   `json:"channel_id" yaml:"channel_id"`
	ChannelName string   `json:"channel_name" yaml:"channel_name"`
	Link        string   `json:"link" yaml:"link"`
	Label       string   `json:"label" yaml:"label"`
	Positions   []uint32 `json:"positions" yaml:"positions"`
}

type resultView struct {
	Query   string    `json:"query" yaml:"query"`
	Count   int       `json:"count" yaml:"count"`
	TookMS  int64     `json:"took_ms" yaml:"took_ms"`
	Results []hitView `json:"results" yaml:"results"`
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "search the index and print links to matching messages",
		ArgsUsage: "QUERY...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "text, json or yaml"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "maximum hits to print (0 uses render.limit)"},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			if query == "" {
				return cli.Exit("search: missing QUERY", 2)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			limit := c.Int("limit")
			if limit == 0 {
				limit = cfg.Render.Limit
			}

			eng, err := openEngine(c, cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			start := time.Now()
			res, err := eng.Search(c.Context, query)
			if err != nil {
				return err
			}
			view := render(eng, res, query, limit, loc, time.Since(start))
			return printResult(c.App.Writer, c.String("format"), view)
		},
	}
}

func render(eng *gramsearch.Engine, res *search.Result, query string, limit int, loc *time.Location, took time.Duration) resultView {
	hits := eng.Hits(res, limit)
	view := resultView{
		Query:   query,
		Count:   res.Len(),
		TookMS:  took.Milliseconds(),
		Results: make([]hitView, 0, len(hits)),
	}
	for _, h := range hits {
		view.Results = append(view.Results, hitView{
			Doc:         h.Doc.String(),
			ChannelID:   h.Channel.ID,
			ChannelName: h.Channel.Name,
			Link:        h.Link(loc),
			Label:       h.Label(loc),
			Positions:   h.Positions,
		})
	}
	return view
}

func printResult(w io.Writer, format string, view resultView) error {
	if format == "text" {
		fmt.Fprintf(w, "%d hits (%.3fs)\n", view.Count, float64(view.TookMS)/1000)
		for _, h := range view.Results {
			fmt.Fprintf(w, "%s\t%s\n", h.Label, h.Link)
		}
		return nil
	}

	c, ok := codec.ByName(format)
	if !ok {
		return cli.Exit(fmt.Sprintf("unknown format %q", format), 2)
	}
	out, err := c.Marshal(view)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		_, err = io.WriteString(w, "\n")
	}
	return err
}

func shellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "search interactively, one query per line",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			eng, err := openEngine(c, cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			return runShell(c.Context, eng, c.App.Reader, c.App.Writer, cfg.Render.Limit, loc)
		},
	}
}

// runShell starts a search per input line without waiting for the previous
// one. A result is printed only if no later search has started since.
func runShell(ctx context.Context, eng *gramsearch.Engine, in io.Reader, out io.Writer, limit int, loc *time.Location) error {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		query := strings.TrimSpace(sc.Text())
		if query == "" {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			res, err := eng.Search(ctx, query)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fmt.Fprintf(out, "error: %s\n", err)
				return
			}
			if !eng.IsCurrent(res) {
				return
			}
			_ = printResult(out, "text", render(eng, res, query, limit, loc, time.Since(start)))
		}()
	}
	wg.Wait()
	return sc.Err()
}
