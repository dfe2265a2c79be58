package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/xintone/xintone/internal/server"
	"github.com/xintone/xintone/pkg/kintone"
)

const (
	errRecordRequired = "Record data is required"
	errIDsRequired    = "Record IDs array is required"
)

type RecordsPostRequest struct {
	Record kintone.Record `json:"record"`
}

func (r RecordsPostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Record, validation.NotNil.Error(errRecordRequired)),
	)
}

type RecordPutRequest struct {
	Record   kintone.Record `json:"record"`
	Revision *json.Number   `json:"revision,omitempty"`
}

func (r RecordPutRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Record, validation.NotNil.Error(errRecordRequired)),
	)
}

// RecordsDeleteRequest is decoded in two steps so that a non-array "ids"
// reports the same error as a missing one.
type RecordsDeleteRequest struct {
	RawIDs json.RawMessage `json:"ids"`

	IDs []string `json:"-"`
}

func (r *RecordsDeleteRequest) Validate() error {
	if len(r.RawIDs) > 0 && string(r.RawIDs) != "null" {
		if err := json.Unmarshal(r.RawIDs, &r.IDs); err != nil {
			r.IDs = nil
		}
	}
	return validation.ValidateStruct(r,
		validation.Field(&r.IDs, validation.NotNil.Error(errIDsRequired)),
	)
}

// RecordsHandler lists, creates, and deletes records of a kintone app.
func RecordsHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
		}

		switch r.Method {
		case "GET":
			fragment := wantsFragment(r)
			target, ok := resolveTarget(srv, w, r, fragment)
			if !ok {
				return
			}
			logArgs = append(logArgs,
				"user_id", target.identity.ID,
				"app_id", target.client.Target().AppID,
			)

			opts, err := parseListOptions(r)
			if err != nil {
				respondError(w, http.StatusBadRequest, err.Error(), fragment)
				return
			}

			result, err := target.client.List(r.Context(), target.apiToken, opts)
			if err != nil {
				respondUpstreamError(srv, w, err, fragment, logArgs)
				return
			}

			if fragment {
				if err := writeRecordsFragment(w, http.StatusOK, result.Records); err != nil {
					srv.Logger.Error("error rendering records fragment",
						append([]any{"error", err}, logArgs...)...)
				}
				return
			}
			respondJSON(w, http.StatusOK, result)

		case "POST":
			fragment := wantsFragment(r)
			target, ok := resolveTarget(srv, w, r, fragment)
			if !ok {
				return
			}
			logArgs = append(logArgs,
				"user_id", target.identity.ID,
				"app_id", target.client.Target().AppID,
			)

			var req RecordsPostRequest
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Warn("error decoding records post request",
					append([]any{"error", err}, logArgs...)...)
				respondError(w, http.StatusBadRequest, "Bad request: invalid JSON body", fragment)
				return
			}
			if err := req.Validate(); err != nil {
				respondError(w, http.StatusBadRequest, validationMessage(err), fragment)
				return
			}

			result, err := target.client.Create(r.Context(), target.apiToken, req.Record)
			if err != nil {
				respondUpstreamError(srv, w, err, fragment, logArgs)
				return
			}

			srv.Logger.Info("created record",
				append([]any{"record_id", result.ID}, logArgs...)...)
			respondJSON(w, http.StatusCreated, result)

		case "DELETE":
			fragment := wantsFragment(r)
			target, ok := resolveTarget(srv, w, r, fragment)
			if !ok {
				return
			}
			logArgs = append(logArgs,
				"user_id", target.identity.ID,
				"app_id", target.client.Target().AppID,
			)

			var req RecordsDeleteRequest
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Warn("error decoding records delete request",
					append([]any{"error", err}, logArgs...)...)
				respondError(w, http.StatusBadRequest, "Bad request: invalid JSON body", fragment)
				return
			}
			if err := req.Validate(); err != nil {
				respondError(w, http.StatusBadRequest, validationMessage(err), fragment)
				return
			}

			body, err := target.client.Delete(r.Context(), target.apiToken, req.IDs)
			if err != nil {
				respondUpstreamError(srv, w, err, fragment, logArgs)
				return
			}

			srv.Logger.Info("deleted records",
				append([]any{"count", len(req.IDs)}, logArgs...)...)
			respondJSON(w, http.StatusOK, body)

		default:
			w.Header().Set("Allow", "GET, POST, DELETE")
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed", false)
			return
		}
	})
}

// RecordHandler reads and updates a single record.
func RecordHandler(srv server.Server) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recordID := chi.URLParam(r, "id")
		logArgs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"record_id", recordID,
		}

		switch r.Method {
		case "GET":
			fragment := wantsFragment(r)
			target, ok := resolveTarget(srv, w, r, fragment)
			if !ok {
				return
			}
			logArgs = append(logArgs,
				"user_id", target.identity.ID,
				"app_id", target.client.Target().AppID,
			)

			result, err := target.client.Get(r.Context(), target.apiToken, recordID)
			if err != nil {
				respondUpstreamError(srv, w, err, fragment, logArgs)
				return
			}

			if fragment {
				if err := writeRecordsFragment(
					w, http.StatusOK, []kintone.Record{result.Record}); err != nil {
					srv.Logger.Error("error rendering record fragment",
						append([]any{"error", err}, logArgs...)...)
				}
				return
			}
			respondJSON(w, http.StatusOK, result)

		case "PUT":
			fragment := wantsFragment(r)
			target, ok := resolveTarget(srv, w, r, fragment)
			if !ok {
				return
			}
			logArgs = append(logArgs,
				"user_id", target.identity.ID,
				"app_id", target.client.Target().AppID,
			)

			var req RecordPutRequest
			if err := decodeRequest(r, &req); err != nil {
				srv.Logger.Warn("error decoding record put request",
					append([]any{"error", err}, logArgs...)...)
				respondError(w, http.StatusBadRequest, "Bad request: invalid JSON body", fragment)
				return
			}
			if err := req.Validate(); err != nil {
				respondError(w, http.StatusBadRequest, validationMessage(err), fragment)
				return
			}

			result, err := target.client.Update(
				r.Context(), target.apiToken, recordID, req.Record, req.Revision)
			if err != nil {
				respondUpstreamError(srv, w, err, fragment, logArgs)
				return
			}

			srv.Logger.Info("updated record",
				append([]any{"revision", result.Revision}, logArgs...)...)
			respondJSON(w, http.StatusOK, result)

		default:
			w.Header().Set("Allow", "GET, PUT")
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed", false)
			return
		}
	})
}

// parseListOptions reads the query, fields, and total_count parameters.
func parseListOptions(r *http.Request) (kintone.ListOptions, error) {
	q := r.URL.Query()
	opts := kintone.ListOptions{
		Query: q.Get("query"),
	}

	if fields := q.Get("fields"); fields != "" {
		for _, f := range strings.Split(fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.Fields = append(opts.Fields, f)
			}
		}
	}

	if tc := q.Get("total_count"); tc != "" {
		v, err := strconv.ParseBool(tc)
		if err != nil {
			return opts, errors.New("total_count must be a boolean")
		}
		opts.TotalCount = v
	}

	return opts, nil
}
