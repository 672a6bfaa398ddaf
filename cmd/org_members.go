// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/canonical/task-manager/internal/types"
	"github.com/canonical/task-manager/pkg/orgs"
)

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "Manage organization members",
}

func membersPath(orgID string) string {
	return fmt.Sprintf("/api/v0/orgs/%s/members", url.PathEscape(orgID))
}

var listMembersCmd = &cobra.Command{
	Use:   "list [org-id]",
	Short: "List members of an organization",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var members []*types.Membership
		if err := newAPIClient().do(cmd.Context(), http.MethodGet, membersPath(args[0]), nil, &members); err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "USER_ID\tROLE")
		for _, m := range members {
			fmt.Fprintf(w, "%s\t%s\n", m.UserID, m.Role)
		}
		w.Flush()
		return nil
	},
}

var addMemberCmd = &cobra.Command{
	Use:   "add [org-id] [user-id] [role]",
	Short: "Add a member or change the role of an existing one",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := new(types.Membership)
		req := orgs.AddMemberRequest{UserID: args[1], Role: args[2]}
		if err := newAPIClient().do(cmd.Context(), http.MethodPost, membersPath(args[0]), req, m); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}

		fmt.Printf("Member added: %s (Role: %s)\n", m.UserID, m.Role)
		return nil
	},
}

var removeMemberCmd = &cobra.Command{
	Use:   "remove [org-id] [user-id]",
	Short: "Remove a member from an organization",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := membersPath(args[0]) + "/" + url.PathEscape(args[1])
		if err := newAPIClient().do(cmd.Context(), http.MethodDelete, path, nil, nil); err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}

		fmt.Printf("Member removed: %s\n", args[1])
		return nil
	},
}

func init() {
	orgCmd.AddCommand(membersCmd)
	membersCmd.AddCommand(listMembersCmd)
	membersCmd.AddCommand(addMemberCmd)
	membersCmd.AddCommand(removeMemberCmd)
}
