// Package handler contains the HTTP handlers for the admin API and
// the public tracking surface.
package handler

import (
	"net/http"
	"strconv"

	"github.com/phishsim/api/pkg/apierror"
	"github.com/phishsim/api/pkg/logger"
)

const queryParamTrue = "true"

// parseQueryInt parses a query parameter as an integer, falling back
// to defaultVal when empty or invalid.
func parseQueryInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}

// parseQueryBool parses a query parameter as a boolean pointer.
// Returns nil when empty; "true" and "1" count as true.
func parseQueryBool(s string) *bool {
	if s == "" {
		return nil
	}
	val := s == queryParamTrue || s == "1"
	return &val
}

// parseQueryIntPtr parses a query parameter as an integer pointer.
// Returns nil when empty or invalid.
func parseQueryIntPtr(s string) *int {
	if s == "" {
		return nil
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &val
}

// handleError maps a service error to the API error envelope. Only
// unrecognized errors are logged; domain errors already carry their
// own signal.
func handleError(w http.ResponseWriter, log *logger.Logger, err error) {
	apiErr := apierror.FromError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error("unexpected error", "error", err)
	}
	apiErr.WriteJSON(w)
}
