package command

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/composable-go/internal/cli/output"
	"github.com/yndnr/composable-go/internal/core/dispatch"
	"github.com/yndnr/composable-go/internal/host"
	"github.com/yndnr/composable-go/internal/host/config"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Host inspection and maintenance",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show storage statistics",
				Action: systemStats,
			},
			{
				Name:  "gc",
				Usage: "Run storage garbage collection",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Abort after this long",
						Value: time.Minute,
					},
				},
				Action: systemGC,
			},
			{
				Name:   "variants",
				Usage:  "List registered message variants",
				Action: systemVariants,
			},
			{
				Name:  "snapshot",
				Usage: "Save, restore and list store snapshots",
				Subcommands: []*cli.Command{
					{
						Name:   "save",
						Usage:  "Write a snapshot of the store",
						Action: snapshotSave,
					},
					{
						Name:      "restore",
						Usage:     "Restore a snapshot file, or the newest valid one",
						ArgsUsage: "[FILE]",
						Action:    snapshotRestore,
					},
					{
						Name:    "list",
						Aliases: []string{"ls"},
						Usage:   "List snapshot files",
						Action:  snapshotList,
					},
				},
			},
			{
				Name:  "config",
				Usage: "Show the effective configuration with secrets masked",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "validate",
						Usage: "Only validate, print nothing on success",
					},
				},
				Action: systemConfig,
			},
		},
	}
}

// Stats is the output of system stats.
type Stats struct {
	Engine           string     `json:"engine"`
	TotalKeys        uint64     `json:"total_keys"`
	TotalSize        uint64     `json:"total_size"`
	LSMSize          uint64     `json:"lsm_size,omitempty"`
	ValueLogSize     uint64     `json:"value_log_size,omitempty"`
	LastGCTime       *time.Time `json:"last_gc_time,omitempty"`
	GCBytesReclaimed uint64     `json:"gc_bytes_reclaimed,omitempty"`
}

func systemStats(c *cli.Context) error {
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		s, err := h.Stats(ctx)
		if err != nil {
			return err
		}
		out := Stats{
			Engine:           s.Engine,
			TotalKeys:        s.TotalKeys,
			TotalSize:        s.TotalSize,
			LSMSize:          s.LSMSize,
			ValueLogSize:     s.ValueLogSize,
			GCBytesReclaimed: s.GCBytesReclaimed,
		}
		if s.LastGCTime > 0 {
			t := time.UnixMilli(s.LastGCTime).UTC()
			out.LastGCTime = &t
		}
		return render(c, out)
	})
}

// GCResult is the output of system gc.
type GCResult struct {
	Reclaimed uint64        `json:"reclaimed_bytes"`
	Elapsed   time.Duration `json:"elapsed"`
}

func systemGC(c *cli.Context) error {
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		defer cancel()

		start := time.Now()
		n, err := h.GC(ctx)
		if err != nil {
			return err
		}
		return render(c, GCResult{Reclaimed: n, Elapsed: time.Since(start)})
	})
}

// VariantList is the output of system variants.
type VariantList dispatch.Schema

// Table implements output.Tabular.
func (v VariantList) Table() *output.Table {
	t := &output.Table{Headers: []string{"KIND", "VARIANT"}}
	for _, name := range v.Handle {
		t.AddRow(dispatch.KindHandle, name)
	}
	for _, name := range v.Query {
		t.AddRow(dispatch.KindQuery, name)
	}
	return t
}

func systemVariants(c *cli.Context) error {
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		return render(c, VariantList(h.Variants()))
	})
}

func snapshotSave(c *cli.Context) error {
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		info, err := h.Snapshot(ctx)
		if err != nil {
			return err
		}
		return render(c, info)
	})
}

func snapshotRestore(c *cli.Context) error {
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		info, err := h.Restore(ctx, c.Args().First())
		if err != nil {
			return err
		}
		return render(c, info)
	})
}

func snapshotList(c *cli.Context) error {
	return withHost(c, func(ctx context.Context, h *host.Host) error {
		m, err := h.Snapshots()
		if err != nil {
			return err
		}
		infos, err := m.List()
		if err != nil {
			return err
		}
		return render(c, infos)
	})
}

func systemConfig(c *cli.Context) error {
	cfg, err := LoadConfig(c)
	if err != nil {
		return err
	}
	if err := config.Verify(cfg); err != nil {
		return err
	}
	if c.Bool("validate") {
		return nil
	}

	format := ParseGlobalFlags(c).Output
	if format == output.FormatTable {
		format = output.FormatYAML
	}
	return output.Print(writer(c), format, config.Sanitize(cfg))
}
