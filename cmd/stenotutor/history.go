package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/stenotutor/internal/config"
	"github.com/verte-zerg/stenotutor/internal/logging"
	"github.com/verte-zerg/stenotutor/internal/store"
)

func runHistoryClearCmd(cmd *cobra.Command, _ []string) error {
	_, fc, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if err := setupLogging(fc, nil); err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logging.New("cli").Warn("failed to close db", slog.String("error", cerr.Error()))
		}
	}()

	n, err := st.Count(cmd.Context())
	if err != nil {
		return err
	}
	if n == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "history is empty")
		return err
	}
	if !historyYes {
		ok, err := confirm(cmd, fmt.Sprintf("Delete %d logged exercises? [y/N] ", n))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
	if err := st.Clear(cmd.Context()); err != nil {
		return err
	}
	logging.New("cli").Info("history cleared", slog.Int("exercises", n))
	return nil
}

func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	if _, err := fmt.Fprint(cmd.OutOrStdout(), prompt); err != nil {
		return false, fmt.Errorf("failed to write output: %w", err)
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
