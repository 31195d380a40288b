package cli

import (
	"loja_checkout/internal/domain/policy"

	"github.com/spf13/cobra"
)

func configCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective payment policy after defaults are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd.Context(), root)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), policy.LoadConfig(settings))
		},
	}
}
