// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/canonical/task-manager/internal/types"
	"github.com/canonical/task-manager/pkg/audit"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Manage organizations",
}

var createOrgCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an organization owned by the caller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		org := new(types.Organization)
		err := newAPIClient().do(cmd.Context(), http.MethodPost, "/api/v0/orgs", map[string]string{"name": args[0]}, org)
		if err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		fmt.Printf("Organization created: %s (ID: %s)\n", org.Name, org.ID)
		return nil
	},
}

var listOrgsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the organizations of the caller",
	RunE: func(cmd *cobra.Command, args []string) error {
		var orgs []*types.Organization
		if err := newAPIClient().do(cmd.Context(), http.MethodGet, "/api/v0/orgs", nil, &orgs); err != nil {
			return fmt.Errorf("failed to list organizations: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCREATED_AT")
		for _, o := range orgs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", o.ID, o.Name, o.CreatedAt.Format(time.RFC3339))
		}
		w.Flush()
		return nil
	},
}

var auditPage, auditLimit int

var auditOrgCmd = &cobra.Command{
	Use:   "audit [org-id]",
	Short: "Show the audit trail of an organization, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		q.Set("page", strconv.Itoa(auditPage))
		q.Set("limit", strconv.Itoa(auditLimit))

		page := new(audit.Page)
		path := fmt.Sprintf("/api/v0/orgs/%s/audit-logs?%s", url.PathEscape(args[0]), q.Encode())
		if err := newAPIClient().do(cmd.Context(), http.MethodGet, path, nil, page); err != nil {
			return fmt.Errorf("failed to list audit logs: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "CREATED_AT\tACTOR\tACTION\tTARGET")
		for _, e := range page.Data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.CreatedAt.Format(time.RFC3339), e.ActorID, e.Action, e.TargetID)
		}
		w.Flush()

		fmt.Printf("Page %d of %d (%d entries)\n", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(orgCmd)
	orgCmd.AddCommand(createOrgCmd)
	orgCmd.AddCommand(listOrgsCmd)
	orgCmd.AddCommand(auditOrgCmd)

	auditOrgCmd.Flags().IntVar(&auditPage, "page", audit.DefaultPage, "Page to show")
	auditOrgCmd.Flags().IntVar(&auditLimit, "limit", audit.DefaultLimit, "Entries per page")
}
