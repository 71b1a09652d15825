package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/composable-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show build information",
		Action: func(c *cli.Context) error {
			return render(c, buildinfo.Get())
		},
	}
}
