package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/composable-go/internal/cli/output"
	"github.com/yndnr/composable-go/internal/core/dispatch"
	"github.com/yndnr/composable-go/internal/host"
	"github.com/yndnr/composable-go/pkg/addr"
)

// ExecCommand returns the exec command.
func ExecCommand() *cli.Command {
	return &cli.Command{
		Name:      "exec",
		Aliases:   []string{"x"},
		Usage:     "Execute a message, e.g. '{\"create_game\": {\"game\": \"chess\"}}'",
		ArgsUsage: "MESSAGE|-",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "sender",
				Aliases:  []string{"s"},
				Usage:    "Human address of the sender",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "contract",
				Usage: "Human address of the contract",
			},
			&cli.StringSliceFlag{
				Name:  "funds",
				Usage: "Attached funds as <amount><denom>, e.g. 100uatom (repeatable)",
			},
			&cli.Uint64Flag{
				Name:  "height",
				Usage: "Block height",
			},
			&cli.StringFlag{
				Name:  "chain-id",
				Usage: "Chain identifier",
			},
		},
		Action: execMessage,
	}
}

// ExecResult is the output of exec.
type ExecResult struct {
	RequestID  string               `json:"request_id"`
	Attributes []dispatch.Attribute `json:"attributes"`
	Data       []byte               `json:"data,omitempty"`
	Messages   int                  `json:"messages"`
}

// Table implements output.Tabular.
func (r ExecResult) Table() *output.Table {
	t := &output.Table{Headers: []string{"ATTRIBUTE", "VALUE"}}
	for _, a := range r.Attributes {
		t.AddRow(a.Key, a.Value)
	}
	t.AddRow("request_id", r.RequestID)
	return t
}

func execMessage(c *cli.Context) error {
	msg, err := readMessage(c)
	if err != nil {
		return err
	}

	funds, err := parseFunds(c.StringSlice("funds"))
	if err != nil {
		return err
	}
	env := dispatch.Env{
		Sender:      addr.HumanAddr(c.String("sender")),
		Contract:    addr.HumanAddr(c.String("contract")),
		BlockHeight: c.Uint64("height"),
		BlockTime:   time.Now().UTC(),
		ChainID:     c.String("chain-id"),
		Funds:       funds,
		RequestID:   dispatch.NewRequestID(),
	}

	return withHost(c, func(ctx context.Context, h *host.Host) error {
		resp, err := h.Execute(ctx, env, msg)
		if err != nil {
			return err
		}
		return render(c, ExecResult{
			RequestID:  env.RequestID.String(),
			Attributes: resp.Attributes,
			Data:       resp.Data,
			Messages:   len(resp.Messages),
		})
	})
}

// parseFunds parses coins written as <amount><denom>.
func parseFunds(values []string) ([]dispatch.Coin, error) {
	coins := make([]dispatch.Coin, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		i := strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' })
		if i <= 0 || i == len(v) {
			return nil, fmt.Errorf("invalid funds %q: want <amount><denom>", v)
		}
		coins = append(coins, dispatch.Coin{Amount: v[:i], Denom: v[i:]})
	}
	return coins, nil
}
