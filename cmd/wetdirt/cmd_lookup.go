package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wetdirt/wetdirt/finger"
	"github.com/wetdirt/wetdirt/metrics"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <acct:name@domain>",
	Short: "Print the WebFinger document for an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(config)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		mgr, err := connect(cmd.Context(), config, logger, metrics.Nop())
		if err != nil {
			return err
		}

		f, err := finger.New(finger.Config{Resolver: mgr, Domain: config.Server.Domain, Logger: logger})
		if err != nil {
			return err
		}

		jrd, err := f.Lookup(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(jrd)
	},
}
