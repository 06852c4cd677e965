// Package forward posts parsed messages to the receiving HTTP API.
package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joshsymonds/replyrelay/internal/gmail"
	"github.com/joshsymonds/replyrelay/internal/quote"
)

// AcceptHeader selects the API version the payload shape belongs to.
const AcceptHeader = "application/vnd.faultfixers.v7+json"

// maxErrorBody bounds how much of a failed response is kept for diagnostics.
const maxErrorBody = 64 << 10

type Config struct {
	Endpoint      string
	Authorization string        // sent verbatim as the authorization header
	Timeout       time.Duration // zero leaves the HTTP client default
}

// HTTPError is returned for non-2xx responses. JSON holds the decoded body
// when it parsed.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
	JSON       any
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("forward: unexpected response %s", e.Status)
}

type Forwarder struct {
	cfg    Config
	client *http.Client
	quotes quote.Extractor
}

// New returns a Forwarder. A nil client uses a fresh http.Client honoring
// cfg.Timeout; a nil extractor copies bodies unchanged into the reply fields.
func New(cfg Config, client *http.Client, ex quote.Extractor) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if ex == nil {
		ex = quote.Nop{}
	}
	return &Forwarder{cfg: cfg, client: client, quotes: ex}
}

// Push builds the payload for msg and posts it.
func (f *Forwarder) Push(ctx context.Context, msg gmail.Message) error {
	payload, err := Build(msg, f.quotes)
	if err != nil {
		return err
	}
	return f.Post(ctx, payload)
}

// Check reports whether a payload can be built for msg.
func (f *Forwarder) Check(msg gmail.Message) error {
	_, err := Build(msg, f.quotes)
	return err
}

func (f *Forwarder) Post(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload for %s: %w", p.EmailID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", f.cfg.Authorization)
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", p.EmailID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	httpErr := &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: raw}
	var decoded any
	if json.Unmarshal(raw, &decoded) == nil {
		httpErr.JSON = decoded
	}
	return httpErr
}
