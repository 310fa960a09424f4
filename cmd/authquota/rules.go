package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/j-veylop/authquota/internal/config"
)

func newRulesCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective grouping rules",
		Long: `Print the grouping rules after overlaying the rules file on the built-in
defaults. The output is valid TOML and can be used as a starting rules file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rules, err := config.LoadRules(rulesPath)
			if err != nil {
				return err
			}
			b, err := rules.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", os.Getenv("RULES_PATH"), "grouping rules TOML file")

	return cmd
}
