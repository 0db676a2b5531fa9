package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/webforge-dev/webforge/cmd/webforge/commands"
	ferrors "github.com/webforge-dev/webforge/internal/foundation/errors"
	"github.com/webforge-dev/webforge/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("webforge"),
		kong.Description("Streaming build tool producing unbundled and bundled web app outputs."),
		kong.Vars{"version": version.Version},
	)

	global := &commands.Global{Logger: slog.Default()}
	if err := ctx.Run(global); err != nil {
		adapter := ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger)
		adapter.ReportError(err)
		os.Exit(adapter.ExitCodeFor(err))
	}
}
