package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// getLoggerFromCmd returns the run's logger, falling back to slog.Default
func getLoggerFromCmd(cmd *cobra.Command) *slog.Logger {
	if app := appFromCmd(cmd); app != nil && app.Logger != nil {
		return app.Logger
	}
	return slog.Default()
}
