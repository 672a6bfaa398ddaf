// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/canonical/task-manager/internal/authorization"
)

var checkRoles []string

var authzCmd = &cobra.Command{
	Use:   "authz",
	Short: "Query the authorization decision service",
}

var authzCheckCmd = &cobra.Command{
	Use:   "check [org-id]",
	Short: "Ask the decision service whether the caller holds one of the roles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		conn, err := getGRPCConn()
		if err != nil {
			return err
		}
		defer conn.Close()

		roles := make([]any, 0, len(checkRoles))
		for _, r := range checkRoles {
			roles = append(roles, r)
		}

		in, err := structpb.NewStruct(map[string]any{"org_id": args[0], "roles": roles})
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}

		out := new(structpb.Struct)
		ctx := getAuthenticatedContext(context.Background())
		if err := conn.Invoke(ctx, authorization.CheckFullMethod, in, out); err != nil {
			return fmt.Errorf("authorization check failed: %w", err)
		}

		fmt.Printf("Allowed as %s\n", out.GetFields()["role"].GetStringValue())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authzCmd)
	authzCmd.AddCommand(authzCheckCmd)

	authzCheckCmd.Flags().StringSliceVar(&checkRoles, "roles", []string{authorization.RoleViewer.String()}, "Roles any of which grants access")
}
