package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/wizctl/internal/capture"
	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
)

// newCaptureCommand creates the capture command
func newCaptureCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Inspect datagram capture files written with --capture",
	}
	cmd.AddCommand(newCaptureShowCommand())
	return cmd
}

// newCaptureShowCommand creates the capture show command
func newCaptureShowCommand() *cobra.Command {
	var format, remote, direction, session string
	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Print the events in a capture file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := capture.Filter{SessionID: session, Remote: remote}
			if direction != "" {
				d, err := capture.ParseDirection(direction)
				if err != nil {
					return wizerrors.InvalidInputf("%v", err)
				}
				filter.Direction = &d
			}

			r, err := capture.NewFilteredReader(args[0], filter)
			if err != nil {
				return wizerrors.WrapErrorf(err, "failed to open capture file")
			}
			defer r.Close()

			events, err := r.ReadAll()
			if err != nil {
				return wizerrors.WrapErrorf(err, "failed to read capture file")
			}

			records := make([]capture.Record, len(events))
			for i, e := range events {
				records[i] = e.Record()
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				defer enc.Close()
				return enc.Encode(records)
			case "text":
				if len(records) == 0 {
					pterm.Info.Println("No events")
					return nil
				}
				for _, rec := range records {
					fmt.Println(formatRecord(rec))
				}
				return nil
			default:
				return wizerrors.InvalidInputf("unknown format %q (want text, json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, yaml)")
	cmd.Flags().StringVar(&remote, "remote", "", "Only show events for this peer address")
	cmd.Flags().StringVar(&direction, "direction", "", "Only show events in this direction (in, out)")
	cmd.Flags().StringVar(&session, "session", "", "Only show events from this session")
	return cmd
}

func formatRecord(rec capture.Record) string {
	arrow := "<-"
	if rec.Direction == "out" {
		arrow = "->"
	}
	line := fmt.Sprintf("%s %s %s %s", rec.Timestamp.Format(time.RFC3339Nano), rec.SessionID[:min(8, len(rec.SessionID))], arrow, rec.Remote)
	if rec.Error != "" {
		return line + " error: " + rec.Error
	}
	return line + " " + rec.Payload
}
