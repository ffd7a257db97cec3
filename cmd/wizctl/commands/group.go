package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	wizerrors "github.com/jmylchreest/wizctl/internal/errors"
	"github.com/jmylchreest/wizctl/internal/group"
)

// newGroupCommand creates the group command
func newGroupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage named groups of devices",
	}

	cmd.AddCommand(
		newGroupListCommand(),
		newGroupCreateCommand(),
		newGroupDeleteCommand(),
		newGroupSetDevicesCommand(),
		newGroupSetCommand(),
	)

	return cmd
}

func requireGroups(cmd *cobra.Command) (*group.Manager, error) {
	app := appFromCmd(cmd)
	if app == nil || app.Groups == nil {
		return nil, wizerrors.Internalf("command context is not initialised")
	}
	return app.Groups, nil
}

// groupParseable returns the parseable string for a group
func groupParseable(g *group.Group) string {
	return fmt.Sprintf("name=%q devices=%q", g.Name, strings.Join(g.Devices, ","))
}

// newGroupListCommand creates the group list command
func newGroupListCommand() *cobra.Command {
	var parseable bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := requireGroups(cmd)
			if err != nil {
				return err
			}
			parseable = wantParseable(parseable)

			list := groups.GetGroups()
			if len(list) == 0 {
				if !parseable {
					pterm.Info.Println("No groups defined")
				}
				return nil
			}

			if parseable {
				for _, g := range list {
					fmt.Println(groupParseable(g))
				}
				return nil
			}

			table := pterm.TableData{{"Name", "Devices"}}
			for _, g := range list {
				table = append(table, []string{g.Name, strings.Join(g.Devices, ", ")})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
		},
	}
	cmd.Flags().BoolVarP(&parseable, "parseable", "p", false, "Output in parseable format (key=value)")
	return cmd
}

// newGroupCreateCommand creates the group create command
func newGroupCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> [ip...]",
		Short: "Create a new group of devices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := requireGroups(cmd)
			if err != nil {
				return err
			}
			g, err := groups.CreateGroup(args[0], args[1:])
			if err != nil {
				return wizerrors.WrapErrorf(err, "failed to create group")
			}
			pterm.Success.Printfln("Created group %s with %d device(s)", g.Name, len(g.Devices))
			return nil
		},
	}
}

// newGroupDeleteCommand creates the group delete command
func newGroupDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := requireGroups(cmd)
			if err != nil {
				return err
			}
			if err := groups.DeleteGroup(args[0]); err != nil {
				return wizerrors.WrapErrorf(err, "failed to delete group")
			}
			pterm.Success.Printfln("Deleted group %s", args[0])
			return nil
		},
	}
}

// newGroupSetDevicesCommand creates the group set-devices command
func newGroupSetDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-devices <name> [ip...]",
		Short: "Replace the devices in a group",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := requireGroups(cmd)
			if err != nil {
				return err
			}
			if err := groups.SetGroupDevices(args[0], args[1:]); err != nil {
				return wizerrors.WrapErrorf(err, "failed to set group devices")
			}
			pterm.Success.Printfln("Group %s now has %d device(s)", args[0], len(args)-1)
			return nil
		},
	}
}

// newGroupSetCommand creates the group set command
func newGroupSetCommand() *cobra.Command {
	var flags pilotFlags
	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Change state, colour and brightness of every device in a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups, err := requireGroups(cmd)
			if err != nil {
				return err
			}
			pc, err := flags.command(cmd)
			if err != nil {
				return err
			}
			if err := groups.SetPilot(args[0], pc); err != nil {
				return wizerrors.WrapErrorf(err, "failed to set group %s", args[0])
			}
			pterm.Success.Printfln("Set %s on group %s", pc, args[0])
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
