package command

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/composable-go/internal/host"
)

// QueryCommand returns the query command.
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:      "query",
		Aliases:   []string{"q"},
		Usage:     "Run a query, e.g. '{\"high_score\": {\"game\": \"chess\"}}'",
		ArgsUsage: "MESSAGE|-",
		Action:    queryMessage,
	}
}

// EncodedResult is printed for results in a binary codec.
type EncodedResult struct {
	Codec string `json:"codec"`
	Data  string `json:"data"`
}

func queryMessage(c *cli.Context) error {
	msg, err := readMessage(c)
	if err != nil {
		return err
	}

	return withHost(c, func(ctx context.Context, h *host.Host) error {
		data, err := h.Query(ctx, msg)
		if err != nil {
			return err
		}

		name := h.Facade().Codec().Name()
		if name != "json" {
			return render(c, EncodedResult{Codec: name, Data: hex.EncodeToString(data)})
		}

		var result any
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&result); err != nil {
			return fmt.Errorf("decode query result: %w", err)
		}
		return render(c, result)
	})
}
