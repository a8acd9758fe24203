package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/folio/pkg/cli/config"
	"github.com/secmon-lab/folio/pkg/domain/types"
	"github.com/secmon-lab/folio/pkg/usecase"
	"github.com/secmon-lab/folio/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var repoCfg config.Repository

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Load the content store and report the retrievable units it yields",
		Flags:   repoCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			store, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "content validation failed")
			}
			defer func() {
				if err := store.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			units, err := usecase.NewContentAggregator(store).Aggregate(ctx)
			if err != nil {
				return goerr.Wrap(err, "content aggregation failed")
			}
			if len(units) == 0 {
				return goerr.New("content yields no retrievable units", goerr.V("backend", repoCfg.Backend()))
			}

			counts := make(map[types.SourceKind]int)
			for _, u := range units {
				counts[u.SourceKind]++
			}

			w := c.Root().Writer
			_, _ = color.New(color.FgGreen).Fprintf(w, "content OK: %d units\n", len(units))
			for _, kind := range []types.SourceKind{types.SourceKindDocument, types.SourceKindProject, types.SourceKindBlog} {
				_, _ = fmt.Fprintf(w, "  %-9s %d\n", kind, counts[kind])
			}
			return nil
		},
	}
}
