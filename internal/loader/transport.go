package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single fetch when the caller's context has no
// deadline of its own.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps the response body read by HTTPTransport.
const maxBodySize = 8 << 20

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.Code, http.StatusText(e.Code))
}

// ErrDecode wraps responses whose body is not the expected JSON.
var ErrDecode = errors.New("response body is not valid JSON")

// HTTPTransport fetches JSON over HTTP.
type HTTPTransport struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewHTTPTransport returns a transport using a dedicated client.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{Client: &http.Client{}, Timeout: DefaultTimeout}
}

// FetchJSON issues GET url and decodes the body into out.
func (t *HTTPTransport) FetchJSON(ctx context.Context, url string, out any) error {
	if _, ok := ctx.Deadline(); !ok && t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		return &StatusError{Code: resp.StatusCode, URL: url}
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Message turns a fetch error into text fit for the error field.
func Message(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &se) && se.Code >= 500:
		return "The server had a problem. Try again later."
	case errors.As(err, &se):
		return fmt.Sprintf("The request could not be processed (HTTP %d).", se.Code)
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to answer."
	case errors.Is(err, ErrDecode):
		return "The server sent a list that could not be read."
	default:
		return "Could not reach the server. Check the connection and try again."
	}
}
