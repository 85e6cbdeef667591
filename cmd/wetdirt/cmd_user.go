package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wetdirt/wetdirt/actor"
	"github.com/wetdirt/wetdirt/metrics"
	"go.uber.org/zap"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage directory accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: withManager(func(cmd *cobra.Command, mgr *actor.Manager, name, password string) error {
		id, err := mgr.CreateUser(cmd.Context(), name, password)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	}),
}

var userPasswdCmd = &cobra.Command{
	Use:   "passwd <name>",
	Short: "Replace an account's password",
	Args:  cobra.ExactArgs(1),
	RunE: withManager(func(cmd *cobra.Command, mgr *actor.Manager, name, password string) error {
		if err := mgr.ChangePassword(cmd.Context(), name, password); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "password changed for %s\n", name)
		return nil
	}),
}

var userVerifyCmd = &cobra.Command{
	Use:   "verify <name>",
	Short: "Check a password against an account",
	Args:  cobra.ExactArgs(1),
	RunE: withManager(func(cmd *cobra.Command, mgr *actor.Manager, name, password string) error {
		if err := mgr.Authenticate(cmd.Context(), name, password); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "ok")
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{userCreateCmd, userPasswdCmd, userVerifyCmd} {
		c.Flags().String("password", "", "password (read from stdin when empty)")
		userCmd.AddCommand(c)
	}
}

type userAction func(cmd *cobra.Command, mgr *actor.Manager, name, password string) error

// withManager connects to the database, resolves the password and runs fn.
func withManager(fn userAction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		password, err := cmd.Flags().GetString("password")
		if err != nil {
			return err
		}
		if password == "" {
			if password, err = readPassword(cmd.InOrStdin()); err != nil {
				return err
			}
		}

		logger, err := newLogger(config)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		mgr, err := connect(cmd.Context(), config, logger, metrics.Nop())
		if err != nil {
			return err
		}

		if err := fn(cmd, mgr, args[0], password); err != nil {
			logger.Debug("user command failed", zap.String("command", cmd.Name()), zap.Error(err))
			return err
		}
		return nil
	}
}

// readPassword reads the first line of r.
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password is required")
	}
	return line, nil
}
