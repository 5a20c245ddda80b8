package desk

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// defaultRequestTimeout bounds ordinary REST calls. Brake and mode-switch
// requests override it because the device answers only once the hardware
// has acted.
const defaultRequestTimeout = 5 * time.Second

// slowRequestTimeout is used for brake control and mode switches.
const slowRequestTimeout = 50 * time.Second

// requestOptions carries the optional parts of an HTTP request.
type requestOptions struct {
	// json, when non-nil, is marshaled as the request body.
	json any
	// form, when non-empty, is sent as multipart form fields.
	// json takes precedence if both are set.
	form map[string]string
	// headers are added to the request verbatim.
	headers map[string]string
	// timeout overrides defaultRequestTimeout when positive.
	timeout time.Duration
}

// request performs an HTTP call against https://{host}{path} with the
// session cookie attached. The method must be one of GET, POST or DELETE;
// the Desk API uses nothing else. Any non-2xx response is returned as a
// *RequestError carrying the response body.
func (c *Client) request(ctx context.Context, method, path string, opts requestOptions) ([]byte, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported request method %q", method)
	}

	timeout := opts.timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	switch {
	case opts.json != nil:
		data, err := json.Marshal(opts.json)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	case len(opts.form) > 0:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for field, value := range opts.form {
			if err := w.WriteField(field, value); err != nil {
				return nil, fmt.Errorf("write form field %s: %w", field, err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("finalize form body: %w", err)
		}
		body = &buf
		contentType = w.FormDataContentType()
	}

	req, err := http.NewRequestWithContext(ctx, method, "https://"+c.host+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}
	if c.cookie != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: c.cookie})
	}

	c.log.Debug("http request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reqErr := &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
		c.log.Debug("http request failed", "method", method, "path", path,
			"status", resp.StatusCode, "body", string(respBody))
		return nil, reqErr
	}
	return respBody, nil
}

// openChannel opens a WebSocket to wss://{host}/{path}, presenting the
// session cookie value as the Authorization header. Each call is an
// independent connection; the device does not multiplex channels.
func (c *Client) openChannel(ctx context.Context, path string) (*websocket.Conn, error) {
	dialer := websocket.Dialer{
		TLSClientConfig:  c.tlsConfig(),
		HandshakeTimeout: c.timeout,
	}
	header := http.Header{}
	if c.cookie != "" {
		header.Set("Authorization", c.cookie)
	}

	url := "wss://" + c.host + "/" + strings.TrimPrefix(path, "/")
	conn, resp, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("open channel %s: %w: %s", path, err, string(body))
		}
		return nil, fmt.Errorf("open channel %s: %w", path, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	c.log.Debug("channel opened", "channel", path)
	return conn, nil
}

// tlsConfig returns the TLS policy shared by the HTTP client and the
// WebSocket dialer. Verification is off unless the caller opted in: the
// device ships a self-signed certificate, so certificate and hostname
// checks are disabled as an accepted, explicit configuration choice.
func (c *Client) tlsConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: !c.verifyTLS} // #nosec G402
}
