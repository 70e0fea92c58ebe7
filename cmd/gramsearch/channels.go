package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func channelsCommand() *cli.Command {
	return &cli.Command{
		Name:  "channels",
		Usage: "list the channels of the index",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			eng, err := openEngine(c, cfg)
			if err != nil {
				return err
			}
			defer eng.Close()

			for _, e := range eng.Directory().Entries() {
				fmt.Fprintf(c.App.Writer, "%d\t%s\t%s\n", e.Number, e.ID, e.Name)
			}
			return nil
		},
	}
}
