package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdChat() *cli.Command {
	var rtCfg runtimeConfig

	return &cli.Command{
		Name:      "chat",
		Aliases:   []string{"c"},
		Usage:     "Ask the assistant one question from the terminal",
		ArgsUsage: "<message>",
		Flags:     rtCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			message := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(message) == "" {
				return goerr.New("message is required")
			}

			rt, err := rtCfg.setup(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.Close()

			result, err := rt.uc.Chat.Chat(ctx, message)
			if err != nil {
				return goerr.Wrap(err, "chat failed")
			}

			w := c.Root().Writer
			_, _ = fmt.Fprintln(w, result.Response)
			if result.Action != nil {
				_, _ = color.New(color.FgCyan).Fprintf(w, "→ %s %s\n", result.Action.Type, result.Action.Payload)
			}
			return nil
		},
	}
}
