// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/canonical/task-manager/pkg/status"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Get the application's version",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := status.NewBuildInfo()

		if format, _ := cmd.Flags().GetString("format"); format == formatJSON {
			return json.NewEncoder(cmd.OutOrStdout()).Encode(info)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "App Version: %s\n", info.Version)
		if info.Commit != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", info.Commit)
		}

		return nil
	},
}

func init() {
	versionCmd.Flags().StringP("format", "f", formatText, "Output format (text or json)")

	rootCmd.AddCommand(versionCmd)
}
