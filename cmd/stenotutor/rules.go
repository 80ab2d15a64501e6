package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/stenotutor/internal/rules"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect word-formation rules",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the active rules",
		Args:  cobra.NoArgs,
		RunE:  runRulesListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "default",
		Short: "Print the built-in rule file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := cmd.OutOrStdout().Write(rules.DefaultYAML()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check FILE",
		Short: "Validate a rule file",
		Args:  cobra.ExactArgs(1),
		RunE:  runRulesCheckCmd,
	})
	return cmd
}

func runRulesListCmd(cmd *cobra.Command, _ []string) error {
	cfg, fc, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(fc, nil); err != nil {
		return err
	}
	cat, err := loadCatalogue(cmd, cfg.RulesPath)
	if err != nil {
		return err
	}
	return writeRules(cmd, cat)
}

func writeRules(cmd *cobra.Command, cat *rules.Catalogue) error {
	out := cmd.OutOrStdout()
	for _, r := range cat.Rules() {
		line := fmt.Sprintf("%-24s %s", r.ID, r.Description)
		if len(r.Requires) > 0 {
			line += fmt.Sprintf(" (requires %s)", strings.Join(r.Requires, ", "))
		}
		if _, err := fmt.Fprintln(out, strings.TrimRight(line, " ")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runRulesCheckCmd(cmd *cobra.Command, args []string) error {
	cat, err := rules.LoadFile(args[0])
	if err != nil {
		return err
	}
	skipped := cat.Skipped()
	errOut := cmd.ErrOrStderr()
	for _, e := range skipped {
		if _, err := fmt.Fprintln(errOut, e); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if len(skipped) > 0 {
		return fmt.Errorf("%d of %d rule definitions are invalid", len(skipped), len(skipped)+cat.Len())
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d rules ok\n", cat.Len())
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
