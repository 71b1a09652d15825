package command

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/composable-go/internal/host"
	"github.com/yndnr/composable-go/internal/storage"
)

// KVCommand returns the kv subcommand group for raw store access.
func KVCommand() *cli.Command {
	hexFlag := &cli.BoolFlag{
		Name:  "hex",
		Usage: "Keys and values are hex encoded",
	}
	nsFlag := &cli.StringFlag{
		Name:    "namespace",
		Aliases: []string{"n"},
		Usage:   "Namespace combined with the key using the configured scheme",
	}

	return &cli.Command{
		Name:  "kv",
		Usage: "Raw key/value access, bypassing the codec",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Get a raw value",
				ArgsUsage: "KEY",
				Flags:     []cli.Flag{hexFlag, nsFlag},
				Action:    kvGet,
			},
			{
				Name:      "set",
				Usage:     "Set a raw value",
				ArgsUsage: "KEY VALUE",
				Flags:     []cli.Flag{hexFlag, nsFlag},
				Action:    kvSet,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a key",
				ArgsUsage: "KEY",
				Flags:     []cli.Flag{hexFlag, nsFlag},
				Action:    kvDelete,
			},
			{
				Name:      "list",
				Aliases:   []string{"ls"},
				Usage:     "List entries under a prefix",
				ArgsUsage: "[PREFIX]",
				Flags: []cli.Flag{
					hexFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of entries",
						Value: 100,
					},
				},
				Action: kvList,
			},
		},
	}
}

// Entry is one raw key/value pair.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func decodeArg(c *cli.Context, s string) ([]byte, error) {
	if c.Bool("hex") {
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid hex %q: %w", s, err)
		}
		return b, nil
	}
	return []byte(s), nil
}

// encodeBytes renders bytes as text when printable, hex otherwise.
func encodeBytes(c *cli.Context, b []byte) string {
	if c.Bool("hex") || !utf8.Valid(b) {
		return hex.EncodeToString(b)
	}
	for _, r := range string(b) {
		if r < 0x20 {
			return hex.EncodeToString(b)
		}
	}
	return string(b)
}

func rawKey(c *cli.Context, h *host.Host) ([]byte, error) {
	key, err := decodeArg(c, c.Args().First())
	if err != nil {
		return nil, err
	}
	if ns := c.String("namespace"); ns != "" {
		nsBytes, err := decodeArg(c, ns)
		if err != nil {
			return nil, err
		}
		if key, err = h.Facade().Key(nsBytes, key); err != nil {
			return nil, err
		}
	}
	return key, nil
}

func kvGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: kv get KEY")
	}
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		key, err := rawKey(c, h)
		if err != nil {
			return err
		}
		value, err := h.Facade().Raw().Get(ctx, key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			return fmt.Errorf("key %q not found", encodeBytes(c, key))
		}
		if err != nil {
			return err
		}
		return render(c, Entry{Key: encodeBytes(c, key), Value: encodeBytes(c, value)})
	})
}

func kvSet(c *cli.Context) error {
	if c.NArg() != 2 {
		return errors.New("usage: kv set KEY VALUE")
	}
	value, err := decodeArg(c, c.Args().Get(1))
	if err != nil {
		return err
	}
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		key, err := rawKey(c, h)
		if err != nil {
			return err
		}
		if err := h.Facade().Raw().Set(ctx, key, value); err != nil {
			return err
		}
		return render(c, Entry{Key: encodeBytes(c, key), Value: encodeBytes(c, value)})
	})
}

func kvDelete(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("usage: kv delete KEY")
	}
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		key, err := rawKey(c, h)
		if err != nil {
			return err
		}
		return h.Facade().Raw().Delete(ctx, key)
	})
}

func kvList(c *cli.Context) error {
	prefix, err := decodeArg(c, c.Args().First())
	if err != nil {
		return err
	}
	limit := c.Int("limit")

	return withHost(c, func(ctx context.Context, h *host.Host) error {
		entries := make([]Entry, 0)
		err := h.Facade().Raw().Scan(ctx, prefix, func(k, v []byte) bool {
			entries = append(entries, Entry{Key: encodeBytes(c, k), Value: encodeBytes(c, v)})
			return limit <= 0 || len(entries) < limit
		})
		if err != nil {
			return err
		}
		return render(c, entries)
	})
}
