package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/session"
	"github.com/matzehuels/linkatlas/pkg/storage"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// writeError maps err to a status code and writes it as JSON. Store
// sentinels are translated to their error codes first.
func writeError(w http.ResponseWriter, err error) {
	err = classify(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	body := errorBody{Error: errorDetail{
		Code:    string(code),
		Message: errors.UserMessage(err),
	}}
	if d := errors.Details(err); len(d) > 1 {
		body.Error.Details = d
	}
	writeJSON(w, errors.HTTPStatus(err), body)
}

func classify(err error) error {
	if errors.GetCode(err) != "" {
		return err
	}
	switch {
	case stderrors.Is(err, session.ErrNotFound):
		return errors.Wrap(errors.ErrCodeSessionNotFound, err, "session not found")
	case stderrors.Is(err, storage.ErrNotFound):
		return errors.Wrap(errors.ErrCodeSnapshotNotFound, err, "snapshot not found")
	}
	return err
}

func notFound(format string, args ...any) error {
	return errors.New(errors.ErrCodeNotFound, format, args...)
}

func badRequest(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidInput, format, args...)
}

// decodeJSON reads a JSON request body into v. An empty body leaves v
// unchanged.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

// pathParam returns a decoded URL parameter.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
