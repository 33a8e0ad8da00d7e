// Package atproto is a minimal XRPC client for the Bluesky endpoints that the
// labeler task needs. Unlike a generated lexicon client it exposes response
// headers, which is where the AppView reports labeler federation results.
package atproto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moolen/sentinel/internal/logging"
)

// DefaultPDSURL is used when no PDS host is configured.
const DefaultPDSURL = "https://bsky.social"

// Client talks XRPC to a PDS, which proxies app.bsky.* calls to the AppView.
// A Client holds at most one session and is not safe for concurrent Login calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   *SessionCache
	session    *Session
	identifier string
	logger     *logging.Logger
}

// NewClient creates a client for baseURL (e.g. "https://bsky.social").
// timeout bounds each request; zero means 30s.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultPDSURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logging.GetLogger("atproto.client"),
	}
}

// WithSessionCache makes Login reuse cached sessions.
func (c *Client) WithSessionCache(cache *SessionCache) *Client {
	c.sessions = cache
	return c
}

// BaseURL returns the PDS URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the current session or nil.
func (c *Client) Session() *Session {
	return c.session
}

// Login creates a session with an account identifier (handle or DID) and an
// app password.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	if c.sessions != nil {
		if s, ok := c.sessions.Get(c.baseURL, identifier); ok {
			c.logger.Debug("Reusing cached session for %s", identifier)
			c.session = s
			c.identifier = identifier
			return s, nil
		}
	}

	var s Session
	in := createSessionInput{Identifier: identifier, Password: password}
	if _, err := c.call(ctx, http.MethodPost, NSIDCreateSession, nil, in, nil, &s); err != nil {
		return nil, err
	}
	if s.DID == "" || s.AccessJWT == "" {
		return nil, &TransportError{NSID: NSIDCreateSession, Message: "response missing did or accessJwt", Err: fmt.Errorf("incomplete session")}
	}

	c.session = &s
	c.identifier = identifier
	if c.sessions != nil {
		c.sessions.Put(c.baseURL, identifier, &s)
	}
	c.logger.Debug("Created session for %s (%s)", s.Handle, s.DID)
	return &s, nil
}

// LabelerSubscriptions returns the DIDs of labelers the logged-in account
// subscribes to, in preference order. An account without a labelersPref
// yields an empty slice.
func (c *Client) LabelerSubscriptions(ctx context.Context) ([]string, error) {
	if c.session == nil {
		return nil, ErrNotLoggedIn
	}

	var out preferencesOutput
	if _, err := c.call(ctx, http.MethodGet, NSIDGetPreferences, nil, nil, nil, &out); err != nil {
		return nil, err
	}

	for _, raw := range out.Preferences {
		var pt preferenceType
		if err := json.Unmarshal(raw, &pt); err != nil || pt.Type != TypeLabelersPref {
			continue
		}
		var pref LabelersPref
		if err := json.Unmarshal(raw, &pref); err != nil {
			return nil, &TransportError{NSID: NSIDGetPreferences, Message: "malformed labelersPref", Err: err}
		}
		dids := make([]string, 0, len(pref.Labelers))
		for _, l := range pref.Labelers {
			if l.DID != "" {
				dids = append(dids, l.DID)
			}
		}
		return dids, nil
	}
	return []string{}, nil
}

// GetLabelerServices fetches the service views for the given labeler DIDs.
func (c *Client) GetLabelerServices(ctx context.Context, dids []string) ([]LabelerView, error) {
	if c.session == nil {
		return nil, ErrNotLoggedIn
	}
	if len(dids) == 0 {
		return nil, nil
	}

	q := url.Values{}
	for _, did := range dids {
		q.Add("dids", did)
	}

	var out getServicesOutput
	if _, err := c.call(ctx, http.MethodGet, NSIDGetLabelerService, q, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Views, nil
}

// GetProfileHeaders fetches actor's profile while asking the AppView to
// consult acceptLabelers, and returns the response headers. The body is
// drained and discarded.
func (c *Client) GetProfileHeaders(ctx context.Context, actor string, acceptLabelers ...string) (http.Header, error) {
	if c.session == nil {
		return nil, ErrNotLoggedIn
	}

	q := url.Values{}
	q.Set("actor", actor)

	headers := map[string]string{}
	if len(acceptLabelers) > 0 {
		headers[HeaderAcceptLabelers] = strings.Join(acceptLabelers, ", ")
	}

	return c.call(ctx, http.MethodGet, NSIDGetProfile, q, nil, headers, nil)
}

// call performs one XRPC request. body is JSON-encoded when non-nil and out,
// when non-nil, receives the decoded JSON response.
func (c *Client) call(ctx context.Context, method, nsid string, query url.Values, body interface{}, headers map[string]string, out interface{}) (http.Header, error) {
	reqURL := fmt.Sprintf("%s/xrpc/%s", c.baseURL, nsid)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", nsid, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", nsid, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil && nsid != NSIDCreateSession {
		req.Header.Set("Authorization", "Bearer "+c.session.AccessJWT)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{NSID: nsid, Err: err}
	}
	defer resp.Body.Close()

	// Read the body to completion so the connection can be reused.
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{NSID: nsid, StatusCode: resp.StatusCode, Message: "read response body", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &TransportError{NSID: nsid, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var xe xrpcErrorBody
		if json.Unmarshal(respBody, &xe) == nil && xe.Error != "" {
			te.Code = xe.Error
			te.Message = xe.Message
		}
		c.logger.Debug("XRPC %s failed: status=%d code=%s", nsid, resp.StatusCode, te.Code)
		if nsid != NSIDCreateSession && IsAuthError(te) {
			c.dropSession()
		}
		return resp.Header, te
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.Header, &TransportError{NSID: nsid, StatusCode: resp.StatusCode, Message: "decode response", Err: err}
		}
	}
	return resp.Header, nil
}

// dropSession forgets a session the server rejected so the next Login
// creates a fresh one instead of reusing it from the cache.
func (c *Client) dropSession() {
	if c.session == nil {
		return
	}
	c.logger.Debug("Session for %s rejected, dropping it", c.identifier)
	if c.sessions != nil {
		c.sessions.Invalidate(c.baseURL, c.identifier)
	}
	c.session = nil
}
