// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"net/http"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// StatusFromError derives the HTTP status of err from the gRPC code it carries,
// errors without one are internal errors.
func StatusFromError(err error) int {
	return runtime.HTTPStatusFromCode(status.Code(err))
}

// ErrorResponseFromStatus renders a gRPC status in the JSON error format.
func ErrorResponseFromStatus(st *status.Status) *ErrorResponse {
	return &ErrorResponse{
		Status:  runtime.HTTPStatusFromCode(st.Code()),
		Message: st.Message(),
	}
}

// WriteError writes err as an ErrorResponse.
// Only the message of a gRPC status reaches the client, anything else is reported as an internal error.
func WriteError(w http.ResponseWriter, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		st = status.New(codes.Internal, "internal server error")
	}

	r := ErrorResponseFromStatus(st)

	return WriteJSON(w, r.Status, r)
}

func WriteJSON(w http.ResponseWriter, code int, body any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	return json.NewEncoder(w).Encode(body)
}
