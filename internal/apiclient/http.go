package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// grantDeviceCode matches the grant type the server's poll endpoint accepts.
const grantDeviceCode = "urn:ietf:params:oauth:grant-type:device_code"

// HTTP talks to a live jotd server.
type HTTP struct {
	base   *url.URL
	client *http.Client
}

// NewHTTP creates a client for the server at baseURL.
func NewHTTP(baseURL string) (*HTTP, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}
	return &HTTP{
		base:   base,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// WithToken returns a copy whose requests carry the session credential. The
// underlying transport comes from oauth2, so the bearer header is attached
// uniformly.
func (h *HTTP) WithToken(tok *oauth2.Token) *HTTP {
	return &HTTP{
		base: h.base,
		client: oauth2.NewClient(
			context.Background(),
			oauth2.StaticTokenSource(tok),
		),
	}
}

// StartDeviceAuth begins a device authorization flow.
func (h *HTTP) StartDeviceAuth(ctx context.Context) (*StartResponse, error) {
	var out StartResponse
	if err := h.postForm(ctx, "/device/code", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PollToken asks whether the flow identified by deviceCode has resolved.
func (h *HTTP) PollToken(ctx context.Context, deviceCode string) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", grantDeviceCode)
	form.Set("device_code", deviceCode)

	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := h.postForm(ctx, "/device/token", form, &out); err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: out.AccessToken,
		TokenType:   out.TokenType,
		Expiry:      time.Now().Add(time.Duration(out.ExpiresIn) * time.Second),
	}, nil
}

// CreateNote adds a note for the authenticated owner.
func (h *HTTP) CreateNote(ctx context.Context, content string, tags []string) (*Note, error) {
	body := map[string]any{"content": content}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	var out Note
	if err := h.postJSON(ctx, "/notes", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListNotes returns the authenticated owner's notes.
func (h *HTTP) ListNotes(ctx context.Context) ([]Note, error) {
	var out struct {
		Notes []Note `json:"notes"`
	}
	if err := h.get(ctx, "/notes", &out); err != nil {
		return nil, err
	}
	return out.Notes, nil
}

// GetNote returns one of the authenticated owner's notes.
func (h *HTTP) GetNote(ctx context.Context, id string) (*Note, error) {
	var out Note
	if err := h.get(ctx, "/notes/"+url.PathEscape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateNote rewrites one of the authenticated owner's notes.
func (h *HTTP) UpdateNote(ctx context.Context, id, content string, tags []string) (*Note, error) {
	body := map[string]any{"content": content}
	if len(tags) > 0 {
		body["tags"] = tags
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := h.newRequest(ctx, http.MethodPut, "/notes/"+url.PathEscape(id), bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, err
	}
	var out Note
	if err := h.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteNote removes one of the authenticated owner's notes.
func (h *HTTP) DeleteNote(ctx context.Context, id string) error {
	req, err := h.newRequest(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil, "")
	if err != nil {
		return err
	}
	return h.do(req, nil)
}

// Me returns the owner identity the stored credential asserts.
func (h *HTTP) Me(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := h.get(ctx, "/auth/me", &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (h *HTTP) get(ctx context.Context, path string, out any) error {
	req, err := h.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return h.do(req, out)
}

func (h *HTTP) postForm(ctx context.Context, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := h.newRequest(ctx, http.MethodPost, path, body, "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	return h.do(req, out)
}

func (h *HTTP) postJSON(ctx context.Context, path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := h.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data), "application/json")
	if err != nil {
		return err
	}
	return h.do(req, out)
}

func (h *HTTP) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	u := *h.base
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (h *HTTP) do(req *http.Request, out any) error {
	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling server: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeError maps the server's error body onto the package sentinels so
// callers can branch with errors.Is.
func decodeError(resp *http.Response) error {
	var body struct {
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("server returned %s", resp.Status)
	}

	switch body.Error {
	case "authorization_pending":
		return ErrAuthorizationPending
	case "slow_down":
		return ErrSlowDown
	case "access_denied":
		return ErrAccessDenied
	case "expired_token":
		return ErrExpiredToken
	}

	if body.ErrorDescription != "" {
		return fmt.Errorf("%s: %s", body.Error, body.ErrorDescription)
	}
	return fmt.Errorf("server returned %s", body.Error)
}
