package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/xintone/xintone/internal/server"
	"github.com/xintone/xintone/pkg/auth"
	"github.com/xintone/xintone/pkg/kintone"
)

const (
	// apiTokenHeader carries the caller's kintone API token.
	apiTokenHeader = "X-Kintone-API-Token"

	// htmxRequestHeader marks requests that want an HTML fragment response.
	htmxRequestHeader = "HX-Request"
)

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// decodeRequest decodes the JSON request body into v.
func decodeRequest(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("error decoding request body: %w", err)
	}
	return nil
}

// wantsFragment reports whether the client asked for an HTML fragment.
func wantsFragment(r *http.Request) bool {
	return r.Header.Get(htmxRequestHeader) != ""
}

// respondJSON writes v as JSON with the given status.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError writes msg as an HTML error fragment when fragment is set and
// as a JSON error body otherwise.
func respondError(w http.ResponseWriter, status int, msg string, fragment bool) {
	if fragment {
		writeErrorFragment(w, status, msg)
		return
	}
	respondJSON(w, status, errorResponse{Error: msg})
}

// recordTarget holds the per-request inputs common to every records route.
type recordTarget struct {
	identity *auth.Identity
	apiToken string
	client   *kintone.Client
}

// resolveTarget checks identity, API token, and app id in that order,
// writing the error response itself when a check fails.
func resolveTarget(
	srv server.Server, w http.ResponseWriter, r *http.Request, fragment bool,
) (*recordTarget, bool) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized", fragment)
		return nil, false
	}

	apiToken := strings.TrimSpace(r.Header.Get(apiTokenHeader))
	if apiToken == "" {
		respondError(w, http.StatusBadRequest, "kintone API token is required", fragment)
		return nil, false
	}

	appID := srv.AppID(r.URL.Query().Get("app_id"))
	if appID == "" {
		respondError(w, http.StatusBadRequest, "kintone app id is required", fragment)
		return nil, false
	}

	return &recordTarget{
		identity: id,
		apiToken: apiToken,
		client:   srv.Kintone.App(appID),
	}, true
}

// respondUpstreamError maps an error from the kintone client to a response.
// Upstream failures surface their message; anything else is logged and
// reported generically.
func respondUpstreamError(
	srv server.Server, w http.ResponseWriter, err error, fragment bool, logArgs []any,
) {
	var ue *kintone.UpstreamError
	if errors.As(err, &ue) {
		srv.Logger.Warn("kintone request failed",
			append([]any{
				"error", err,
				"upstream_status", ue.StatusCode,
				"upstream_code", ue.Code,
			}, logArgs...)...)
		respondError(w, http.StatusInternalServerError, ue.Error(), fragment)
		return
	}

	srv.Logger.Error("error calling kintone",
		append([]any{
			"error", err,
		}, logArgs...)...)
	respondError(w, http.StatusInternalServerError, "Internal server error", fragment)
}

// validationMessage flattens ozzo validation errors into their messages,
// without the field-name prefixes.
func validationMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}

	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, errs[k].Error())
	}
	return strings.Join(msgs, "; ")
}
