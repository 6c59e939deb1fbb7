package weread

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultWebURL = "https://weread.qq.com"
	DefaultAPIURL = "https://i.weread.qq.com"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// SessionConfig configures a cookie session against the reading service.
type SessionConfig struct {
	Cookie  string        // Raw Cookie header value ("k=v; k2=v2")
	WebURL  string        // Landing site, hit to keep the session warm
	APIURL  string        // JSON API host
	Timeout time.Duration // HTTP timeout (default: 30s)
	Logger  *slog.Logger
}

// Session owns the authenticated HTTP handle for the reading service.
type Session struct {
	webURL string
	apiURL string
	client *http.Client
	logger *slog.Logger
}

// NewSession parses the credential string into a cookie jar shared by the
// landing site and the API host.
func NewSession(cfg SessionConfig) (*Session, error) {
	if cfg.WebURL == "" {
		cfg.WebURL = DefaultWebURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cookies := ParseCookies(cfg.Cookie)
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found in credential string")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	for _, raw := range []string{cfg.WebURL, cfg.APIURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid url %q: %w", raw, err)
		}
		jar.SetCookies(u, cookies)
	}

	return &Session{
		webURL: strings.TrimSuffix(cfg.WebURL, "/"),
		apiURL: strings.TrimSuffix(cfg.APIURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		logger: cfg.Logger,
	}, nil
}

// ParseCookies splits a raw Cookie header value into cookies.
// Malformed pairs are skipped.
func ParseCookies(raw string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, part := range strings.Split(raw, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: strings.TrimSpace(value)})
	}
	return cookies
}

// Touch requests the landing page. The service re-validates the session and
// rotates its cookies on this request.
func (s *Session) Touch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.webURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// get issues a GET against the API host and decodes the response into out.
func (s *Session) get(ctx context.Context, path string, params url.Values, schema string, out any) error {
	u := s.apiURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return s.do(req, schema, out)
}

// post issues a JSON POST against the API host and decodes the response into out.
func (s *Session) post(ctx context.Context, path string, body any, schema string, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, schema, out)
}

// apiStatus is the in-band status every response may carry.
type apiStatus struct {
	ErrCode int    `json:"errCode"`
	ErrMsg  string `json:"errMsg"`
}

func (s *Session) do(req *http.Request, schema string, out any) error {
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Expired sessions sometimes come back as 401 with the errCode in the body.
		var status apiStatus
		if json.Unmarshal(respBody, &status) == nil && status.ErrCode == ErrCodeSessionExpired {
			return fmt.Errorf("%w: %s", ErrSessionExpired, status.ErrMsg)
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	return decodeResponse(respBody, schema, out)
}

// decodeResponse checks the in-band status, validates the response shape and
// unmarshals it into out.
func decodeResponse(body []byte, schema string, out any) error {
	if !json.Valid(body) {
		return fmt.Errorf("%w: %d bytes starting %q", ErrNotJSON, len(body), snippet(body))
	}
	var status apiStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	switch {
	case status.ErrCode == ErrCodeSessionExpired:
		return fmt.Errorf("%w: %s", ErrSessionExpired, status.ErrMsg)
	case status.ErrCode != 0:
		return fmt.Errorf("%w: errCode %d: %s", ErrAPI, status.ErrCode, status.ErrMsg)
	}

	if schema != "" {
		if err := validateResponse(schema, body); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func snippet(body []byte) string {
	const n = 32
	if len(body) > n {
		return string(body[:n])
	}
	return string(body)
}

func (s *Session) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", s.webURL+"/")
	req.Header.Set("Accept", "application/json, text/plain, */*")
}
