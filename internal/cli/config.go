package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scholarshare/scholarshare/pkg/config"
)

// configCommand creates the config command group.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect model and platform credentials",
	}

	cmd.AddCommand(c.configStatusCommand())
	cmd.AddCommand(c.configKeysCommand())
	return cmd
}

// configStatusCommand creates the "config status" subcommand. Values are
// never printed, only whether each key is set.
func (c *CLI) configStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which credential keys are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, st := range c.settings.Status() {
				mark := StyleWarning.Render("unset")
				if st.Configured {
					mark = StyleSuccess.Render("set")
				}
				fmt.Println(StyleDim.Render(fmt.Sprintf("%-28s", st.Key)) + " " + mark)
			}
			return nil
		},
	}
}

// configKeysCommand creates the "config keys" subcommand.
func (c *CLI) configKeysCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the recognized configuration keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, key := range config.KnownKeys() {
				fmt.Println(key)
			}
			return nil
		},
	}
}
