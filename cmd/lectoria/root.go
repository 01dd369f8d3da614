// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/chicohaager/lectoria/internal/xdg"
)

// Global flags available to all subcommands.
var configFile string

// resolveConfigFile returns the explicit --config path, or the XDG
// config file when one exists on disk, or empty for defaults only.
func resolveConfigFile() string {
	if configFile != "" {
		return configFile
	}
	if path := xdg.ConfigFile(); fileExists(path) {
		return path
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// NewRootCmd creates the root command for the Lectoria CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lectoria",
		Short: "Lectoria - a self-hosted document library",
		Long: `Lectoria is a self-hosted library for PDF and EPUB documents
with accounts, owner-scoped permissions and public share links.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewStatusCmd())

	return cmd
}
