// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authorization

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	OrgIDParam = "orgId"

	// maxInspectedBody bounds the bodies read while looking for an organization id.
	maxInspectedBody = 1 << 20
)

// ExtractOrgID looks for the organization id in the path, then the JSON body, then the query.
// The body is left readable for the next handler.
func ExtractOrgID(r *http.Request) string {
	if orgID := chi.URLParam(r, OrgIDParam); orgID != "" {
		return orgID
	}

	if orgID := orgIDFromBody(r); orgID != "" {
		return orgID
	}

	return r.URL.Query().Get(OrgIDParam)
}

func orgIDFromBody(r *http.Request) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return ""
	}

	if r.ContentLength > maxInspectedBody {
		return ""
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, maxInspectedBody+1))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))

	if err != nil || len(raw) > maxInspectedBody {
		return ""
	}

	var body struct {
		OrgID string `json:"orgId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}

	return body.OrgID
}
