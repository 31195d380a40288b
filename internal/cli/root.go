// Package cli implements policy-cli, the offline companion of the checkout
// API: it evaluates the payment policy against a settings file or the live
// settings table and seeds the catalog tables for local runs.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	settingsPath string
	useDynamo    bool
	configPath   string
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "policy-cli",
		Short: "Inspect and exercise the checkout payment policy",
		Long: `policy-cli loads merchant settings the same way the checkout API does and
prints the resulting payment policy, or the decision for a hypothetical order.

Settings come from a YAML file (--settings) or from the settings table (--dynamodb).
With neither flag the built-in defaults are used.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.settingsPath, "settings", "s", "", "YAML file with a top-level settings map")
	root.PersistentFlags().BoolVar(&opts.useDynamo, "dynamodb", false, "Read settings from the DynamoDB settings table")
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "Process config file (env vars are used when empty)")

	root.AddCommand(resolveCmd(opts))
	root.AddCommand(configCmd(opts))
	root.AddCommand(seedCmd(opts))

	return root
}

// Execute runs the root command
func Execute(version string) error {
	if err := newRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
