package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maialino123/ecomate-extract/internal/settings"
	"github.com/maialino123/ecomate-extract/internal/ui"
	"github.com/maialino123/ecomate-extract/internal/utils/output"
)

// settingsCmd represents the settings command
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change saved settings",
	Long: `Settings are kept in the OS keyring, or in ~/.ecomate/settings.json when no
keyring is available (CI, containers).

Keys:
  api-url   Backend the extension talks to (default ` + settings.DefaultAPIURL + `)`,
	Example: `  # Show every setting as JSON
  ecomate settings

  # Read one setting
  ecomate settings get api-url

  # Point at a staging backend
  ecomate settings set api-url https://staging.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		st, err := a.Settings.Load()
		if err != nil {
			return err
		}
		return output.WriteJSON(os.Stdout, st)
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		v, err := a.Settings.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := GetAppFromCmd(cmd)
		if a == nil {
			return fmt.Errorf("application not initialized")
		}
		if err := a.Settings.Set(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "%s %s = %s\n", ui.Success("✓ Saved"), args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}
