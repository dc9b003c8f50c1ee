// Package gotrue talks to a Supabase GoTrue auth server over its REST API.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tradedesk/dashboard/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from GoTrue.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gotrue: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("gotrue: %d: %s", e.Status, e.Message)
}

// errorBody covers the error shapes GoTrue has used across versions.
type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b errorBody) text() string {
	for _, s := range []string{b.ErrorDescription, b.Msg, b.Message, b.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// transport holds what both the public and the admin client need.
type transport struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func newTransport(baseURL, apiKey string, httpClient *http.Client) transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return transport{
		baseURL:    strings.TrimRight(baseURL, "/") + "/auth/v1",
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// do sends body as JSON and decodes a 2xx response into out when out is non-nil.
func (t transport) do(ctx context.Context, method, path string, query url.Values, bearer string, body, out any) error {
	u := t.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", t.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = t.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gotrue %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		code := eb.ErrorCode
		if code == "" {
			code = eb.Error
		}
		msg := eb.text()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: code, Message: msg}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// tokenResponse is returned by /token and, when no confirmation is needed, /signup.
type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *domain.User `json:"user"`
}

func (r tokenResponse) session() *domain.Session {
	s := &domain.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		User:         r.User,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0).UTC()
	case r.ExpiresIn > 0:
		s.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second).UTC()
	}
	return s
}

// mapError translates GoTrue statuses into domain errors. unauthorized is
// returned for 401/403.
func mapError(err error, unauthorized error) error {
	var ae *APIError
	if !errors.As(err, &ae) {
		return err
	}
	switch {
	case ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", unauthorized, ae.Message)
	case ae.Status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrUserNotFound, ae.Message)
	case ae.Code == "user_already_exists" || ae.Code == "email_exists" ||
		strings.Contains(strings.ToLower(ae.Message), "already registered"):
		return fmt.Errorf("%w: %s", domain.ErrUserExists, ae.Message)
	case ae.Code == "weak_password" || ae.Code == "validation_failed" || ae.Status == http.StatusUnprocessableEntity:
		return &domain.ValidationError{Field: "password", Message: ae.Message}
	}
	return err
}
