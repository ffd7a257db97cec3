package commands

import (
	"context"
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/wizctl/internal/capture"
	"github.com/jmylchreest/wizctl/internal/config"
	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
	"github.com/jmylchreest/wizctl/internal/events"
	"github.com/jmylchreest/wizctl/internal/group"
	"github.com/jmylchreest/wizctl/internal/utils"
	"github.com/jmylchreest/wizctl/pkg/wiz"
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wizctl",
		Short:         "Control WiZ lights and plugs on the local network",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if appFromCmd(cmd) != nil {
				return nil
			}
			app, err := buildApp(cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), AppContextKey, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app := appFromCmd(cmd); app != nil {
				return app.Close()
			}
			return nil
		},
	}
	cmd.SetContext(context.Background())

	// Add global flags
	cmd.PersistentFlags().String("config", "", "Path to config file")
	cmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log-format", "", "Log format (text, json)")
	cmd.PersistentFlags().Int("port", 0, "Device UDP port")
	cmd.PersistentFlags().Duration("timeout", 0, "Per-request timeout")
	cmd.PersistentFlags().String("capture", "", "Append every datagram sent and received to this file")

	// Add commands
	cmd.AddCommand(
		newVersionCommand(version, commit, buildDate),
		newDiscoverCommand(),
		newGetCommand(),
		newOnCommand(),
		newOffCommand(),
		newSetCommand(),
		newSignalCommand(),
		newSysConfigCommand(),
		newModelConfigCommand(),
		newPowerCommand(),
		newGroupCommand(),
		newCaptureCommand(),
	)

	return cmd
}

// buildApp loads configuration, applies flag overrides and wires the client,
// group manager and capture logger for one run.
func buildApp(cmd *cobra.Command) (*App, error) {
	flags := cmd.Flags()

	configFile, _ := flags.GetString("config")
	cfg, err := config.Load(config.ConfigFilename, configFile)
	if err != nil {
		// logging is not configured yet
		return nil, wizerrors.LogErrorAndReturn(utils.SetupErrorLogger(), err, "failed to load configuration", "path", configFile)
	}

	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Logging.Level = v
	}
	if v, _ := flags.GetString("log-format"); v != "" {
		cfg.Logging.Format = v
	}
	if v, _ := flags.GetInt("port"); v != 0 {
		cfg.Network.Port = v
	}
	if v, _ := flags.GetDuration("timeout"); v != 0 {
		cfg.Network.Timeout = config.ClampTimeout(v)
	}
	if flags.Changed("window") {
		v, err := flags.GetDuration("window")
		if err != nil {
			return nil, wizerrors.InvalidInputf("invalid --window: %v", err)
		}
		cfg.Network.DiscoveryWindow = config.ClampTimeout(v)
	}
	if v, _ := flags.GetString("capture"); v != "" {
		cfg.Capture.File = v
	}

	logger := utils.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)
	utils.SetAsDefaultLogger(logger)

	broadcast := net.ParseIP(cfg.Network.BroadcastAddress)
	if broadcast == nil || broadcast.To4() == nil {
		return nil, wizerrors.InvalidInputf("invalid broadcast address %q", cfg.Network.BroadcastAddress)
	}

	app := &App{
		Bus:    events.NewBus(),
		Logger: logger,
	}

	factory := wiz.UDPTransportFactory(logger)
	if cfg.Capture.File != "" {
		fl, err := capture.NewFileLogger(cfg.Capture.File)
		if err != nil {
			return nil, wizerrors.WrapErrorf(err, "failed to open capture file")
		}
		session := capture.NewSessionID()
		logger.Debug("capturing datagrams", "file", cfg.Capture.File, "session", session)
		factory = capture.WrapFactory(factory, fl, session)
		app.closers = append(app.closers, fl)
	}

	client := wiz.NewClient(logger,
		wiz.WithPort(cfg.Network.Port),
		wiz.WithBroadcastAddress(broadcast),
		wiz.WithTimeout(cfg.Network.Timeout),
		wiz.WithDiscoveryWindow(cfg.Network.DiscoveryWindow),
		wiz.WithBufferSize(cfg.Network.BufferSize),
		wiz.WithPollInterval(cfg.Network.PollInterval),
		wiz.WithTransportFactory(factory),
		wiz.WithEventBus(app.Bus),
	)
	app.Client = wizClient{c: client}

	app.Groups = group.NewManager(logger, cfg, group.FromClient(client))
	app.Groups.SetEventBus(app.Bus)

	return app, nil
}

// newVersionCommand creates the version command
func newVersionCommand(version, commit, buildDate string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wizctl:\n")
			fmt.Printf("  Version:    %s\n", version)
			fmt.Printf("  Commit:     %s\n", commit)
			fmt.Printf("  Build Date: %s\n", buildDate)
		},
	}
}
