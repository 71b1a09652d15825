package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/composable-go/internal/cli/output"
	"github.com/yndnr/composable-go/internal/host"
	"github.com/yndnr/composable-go/internal/host/config"
	"github.com/yndnr/composable-go/internal/infra/buildinfo"
	"github.com/yndnr/composable-go/internal/infra/confloader"
	"github.com/yndnr/composable-go/internal/infra/shutdown"
)

// closeTimeout bounds how long closing the host may take.
const closeTimeout = 10 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "composable-cli",
		Usage:   "Run contract messages against a sandbox host",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ExecCommand(),
			QueryCommand(),
			KVCommand(),
			SystemCommand(),
			VersionCommand(),
		},
		Before: func(c *cli.Context) error {
			_, err := output.ParseFormat(c.String("output"))
			return err
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to a YAML configuration file",
			EnvVars: []string{"COMPOSABLE_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "Storage backend: memory, badger",
		},
		&cli.StringFlag{
			Name:    "dir",
			Aliases: []string{"d"},
			Usage:   "Data directory for the badger backend",
		},
		&cli.StringFlag{
			Name:  "codec",
			Usage: "Value codec: json, msgpack, proto",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"COMPOSABLE_LOG_LEVEL"},
			Value:   "warn",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Config   string
	Backend  string
	Dir      string
	Codec    string
	LogLevel string
	Output   output.Format
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	format, _ := output.ParseFormat(c.String("output"))
	return &GlobalFlags{
		Config:   c.String("config"),
		Backend:  c.String("backend"),
		Dir:      c.String("dir"),
		Codec:    c.String("codec"),
		LogLevel: c.String("log-level"),
		Output:   format,
	}
}

// overrides maps set flags onto configuration keys.
func (f *GlobalFlags) overrides() map[string]any {
	m := map[string]any{"log.level": f.LogLevel}
	if f.Backend != "" {
		m["storage.backend"] = f.Backend
	}
	if f.Dir != "" {
		m["storage.dir"] = f.Dir
	}
	if f.Codec != "" {
		m["codec.name"] = f.Codec
	}
	return m
}

// LoadConfig builds the host configuration from defaults, the config file,
// COMPOSABLE_* environment variables and command-line flags, in that order.
func LoadConfig(c *cli.Context) (*config.HostConfig, error) {
	flags := ParseGlobalFlags(c)
	cfg := config.Default()

	opts := []confloader.Option{confloader.WithOverrides(flags.overrides())}
	if flags.Config != "" {
		opts = append(opts, confloader.WithConfigFile(flags.Config))
	}
	if err := confloader.NewLoader(opts...).Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// withHost opens a host, runs fn under a signal-aware context and closes
// the host afterwards.
func withHost(c *cli.Context, fn func(ctx context.Context, h *host.Host) error) (err error) {
	ctx, stop := shutdown.WithSignals(c.Context)
	defer stop()

	cfg, err := LoadConfig(c)
	if err != nil {
		return err
	}
	h, err := host.New(cfg)
	if err != nil {
		return err
	}

	closer := shutdown.NewHandler(closeTimeout)
	closer.OnShutdown(func(context.Context) error { return h.Close() })
	defer func() {
		if cerr := closer.Shutdown(); err == nil && cerr != nil {
			err = fmt.Errorf("close host: %w", cerr)
		}
	}()

	return fn(ctx, h)
}

// render writes data to the app writer in the selected format.
func render(c *cli.Context, data any) error {
	return output.Print(writer(c), ParseGlobalFlags(c).Output, data)
}

func writer(c *cli.Context) io.Writer {
	if c.App != nil && c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

// readMessage returns the message argument, or stdin when it is "-".
func readMessage(c *cli.Context) ([]byte, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one MESSAGE argument")
	}
	arg := c.Args().First()
	if arg != "-" {
		return []byte(arg), nil
	}
	reader := io.Reader(os.Stdin)
	if c.App != nil && c.App.Reader != nil {
		reader = c.App.Reader
	}
	return io.ReadAll(reader)
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
