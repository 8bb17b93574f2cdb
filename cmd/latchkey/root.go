// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/latchkey/latchkey/internal/config"
)

// NewRootCmd creates the root command for the latchkey CLI.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

func newRootCmd(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latchkey",
		Short: "Latchkey - credential and session authentication server",
		Long: `Latchkey registers users, verifies email and password credentials,
and issues server-side sessions carried in an HTTP cookie.`,
		SilenceUsage: true,
	}

	// Configuration flags are shared by every subcommand.
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(newServeCmd(deps))
	cmd.AddCommand(newMigrateCmd(deps))

	return cmd
}
