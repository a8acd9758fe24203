package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/service/index"
	"github.com/urfave/cli/v3"
)

func cmdSearch() *cli.Command {
	var rtCfg runtimeConfig
	var k int

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "k",
			Usage:       "Number of results",
			Value:       index.DefaultK,
			Destination: &k,
		},
	}
	flags = append(flags, rtCfg.Flags()...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Query the retrieval index and print the best matching units",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.New("query is required")
			}

			rt, err := rtCfg.setup(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			if rt.index == nil {
				return goerr.New("retrieval index requires LLM credentials")
			}

			hits, err := rt.index.Search(ctx, query, k)
			if err != nil {
				return goerr.Wrap(err, "search failed")
			}

			w := c.Root().Writer
			if len(hits) == 0 {
				_, _ = fmt.Fprintln(w, index.MessageNoResult)
				return nil
			}

			header := color.New(color.FgYellow, color.Bold)
			for i, hit := range hits {
				_, _ = header.Fprintf(w, "#%d %s (%.3f)\n", i+1, hit.ID, hit.Similarity)
				_, _ = fmt.Fprintln(w, hit.Text)
				_, _ = fmt.Fprintln(w)
			}
			return nil
		},
	}
}
