package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/profile"
	"github.com/verte-zerg/vizier/internal/theme"
)

var (
	usersFirst string
	usersLast  string

	calibrateLeft     string
	calibrateRight    string
	calibrateSwap     bool
	calibrateReset    bool
	calibratePalettes bool
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage patient profiles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List patients (* marks the active one)",
		Args:  cobra.NoArgs,
		RunE:  runUsersListCmd,
	}
	add := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a patient",
		Args:  cobra.ExactArgs(1),
		RunE:  runUsersAddCmd,
	}
	add.Flags().StringVar(&usersFirst, "first", "", "first name")
	add.Flags().StringVar(&usersLast, "last", "", "last name")
	use := &cobra.Command{
		Use:   "use <username>",
		Short: "Select the active patient",
		Args:  cobra.ExactArgs(1),
		RunE:  runUsersUseCmd,
	}

	cmd.AddCommand(list, add, use)
	return cmd
}

func runUsersListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		logErrln("No users yet. Create one with: vizier users add <username>")
		return nil
	}
	active, err := a.store.ActiveUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active user: %w", err)
	}
	out := cmd.OutOrStdout()
	for _, u := range users {
		marker := " "
		if u.Username == active {
			marker = "*"
		}
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		if _, err := fmt.Fprintf(out, "%s %-16s %s\n", marker, u.Username, name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runUsersAddCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	u, err := a.store.CreateUser(ctx, model.User{
		Username:  args[0],
		FirstName: strings.TrimSpace(usersFirst),
		LastName:  strings.TrimSpace(usersLast),
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	a.log.Info("user created", "username", u.Username, "user_id", u.ID)

	active, err := a.store.ActiveUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to read active user: %w", err)
	}
	if active == "" {
		if err := a.store.SetActiveUser(ctx, u.Username); err != nil {
			return fmt.Errorf("failed to select user: %w", err)
		}
		logErrf("Created %s (now active)\n", u.Username)
		return nil
	}
	logErrf("Created %s\n", u.Username)
	return nil
}

func runUsersUseCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	u, err := a.store.UserByUsername(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.store.SetActiveUser(ctx, u.Username); err != nil {
		return fmt.Errorf("failed to select user: %w", err)
	}
	logErrf("Active user: %s\n", u.DisplayName())
	return nil
}

func newCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Show or set the eye colors of the active patient",
		Long: `Show or set the eye colors of the active patient.

Colors are "#rrggbb", a default color name (red, blue, ...) or "palette:name".
Without flags the current calibration is printed.`,
		Args: cobra.NoArgs,
		RunE: runCalibrateCmd,
	}
	cmd.Flags().StringVar(&calibrateLeft, "left", "", "left eye color")
	cmd.Flags().StringVar(&calibrateRight, "right", "", "right eye color")
	cmd.Flags().BoolVar(&calibrateSwap, "swap", false, "exchange the left and right colors")
	cmd.Flags().BoolVar(&calibrateReset, "reset", false, "start from the default blue/red pair")
	cmd.Flags().BoolVar(&calibratePalettes, "palettes", false, "list the named colors and exit")
	return cmd
}

func runCalibrateCmd(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	if calibratePalettes {
		for _, p := range theme.Palettes() {
			for _, name := range p.Names() {
				if _, err := fmt.Fprintf(out, "%-6s %-12s %s\n", p.Name, name, theme.Hex(p.Colors[name])); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
			}
		}
		return nil
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	username := ""
	if cmd.Flags().Changed("user") {
		username = appUser
	}
	pc, err := profile.Activate(ctx, a.store, username)
	if err != nil {
		return err
	}

	changed := calibrateReset || calibrateSwap || calibrateLeft != "" || calibrateRight != ""
	if changed {
		cal, err := nextCalibration(pc.Calibration)
		if err != nil {
			return err
		}
		if pc, err = pc.Calibrate(ctx, a.store, cal); err != nil {
			return err
		}
		a.log.Info("calibration saved", "username", pc.User.Username)
	}

	status := "stored"
	if !pc.Calibrated {
		status = "default"
	}
	_, err = fmt.Fprintf(out, "%s: left %s  right %s (%s)\n",
		pc.User.Username, theme.Hex(pc.Calibration.Left), theme.Hex(pc.Calibration.Right), status)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// nextCalibration applies --reset, then explicit colors, then --swap.
func nextCalibration(cur model.Calibration) (model.Calibration, error) {
	if calibrateReset {
		cur = theme.DefaultCalibration()
	}
	if calibrateLeft != "" {
		c, err := theme.ParseColor(calibrateLeft)
		if err != nil {
			return cur, fmt.Errorf("--left: %w", err)
		}
		cur.Left = c
	}
	if calibrateRight != "" {
		c, err := theme.ParseColor(calibrateRight)
		if err != nil {
			return cur, fmt.Errorf("--right: %w", err)
		}
		cur.Right = c
	}
	if calibrateSwap {
		cur = cur.Swap()
	}
	if cur.Left == cur.Right {
		return cur, fmt.Errorf("left and right colors must differ")
	}
	return cur, nil
}
