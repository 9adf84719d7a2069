package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const (
	headerPrefix = "St-"
	maxBodySize  = 1 << 16
)

type Envelope map[string]any

func (c controller) writeJSON(w http.ResponseWriter, status int, data Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Info("failed to write json", "error", err)
	}
}

func (c controller) writeError(w http.ResponseWriter, status int, err error) {
	var ve validationErrors
	if errors.As(err, &ve) {
		c.writeJSON(w, status, Envelope{"errors": ve})
		return
	}

	c.writeJSON(w, status, Envelope{"error": err.Error()})
}

// readJSON decodes the request body into v. An empty body leaves v as is.
func (c controller) readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode body: %w", err)
	}

	return nil
}

func (c controller) getQueryParam(r *http.Request, key string) (string, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return "", fmt.Errorf("%s was not provided", key)
	}

	return value, nil
}

// getAuthToken reads the token from the auth-token query param, falling
// back to the St-Auth-Token header.
func (c controller) getAuthToken(r *http.Request) (string, error) {
	if token, err := c.getQueryParam(r, "auth-token"); err == nil {
		return token, nil
	}

	token := r.Header.Get(headerPrefix + "Auth-Token")
	if token == "" {
		return "", errors.New("auth token was not provided")
	}

	return token, nil
}
