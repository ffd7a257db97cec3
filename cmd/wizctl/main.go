package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/jmylchreest/wizctl/cmd/wizctl/commands"
	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	rootCmd := commands.NewRootCommand(version, commit, buildDate)

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err)
		if hint := wizerrors.Hint(err); hint != "" {
			pterm.Info.WithWriter(os.Stderr).Println(hint)
		}
		os.Exit(wizerrors.ExitCode(err))
	}
}
