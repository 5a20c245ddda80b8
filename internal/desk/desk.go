// Package desk is a client for the web-based Desk interface of Franka
// robots. It manages credential login and the cookie-based session,
// acquisition and persistence of the exclusive control token that gates
// privileged operations (including the timed physical-confirmation
// handshake of a forced takeover), and long-lived status channel
// subscriptions with condition-wait helpers built on top of them.
//
// A Client is bound to one host and is meant to be driven by a single
// caller; concurrency is obtained by opening independent stream
// subscriptions, each owning its own connection.
package desk

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/openfranka/deskctl/internal/logging"
	"github.com/openfranka/deskctl/internal/tokenstore"
)

// sessionCookieName is the cookie the Desk sets on successful login.
const sessionCookieName = "authorization"

// Client is an authenticated session with one Desk host.
//
// A Client is not safe for concurrent mutation (Login, TakeControl); the
// stream subscriptions it hands out are independently owned and may be
// consumed from separate goroutines.
type Client struct {
	host     string
	platform Platform
	username string
	cookie   string
	loggedIn bool

	token tokenstore.Token
	store *tokenstore.Store

	httpClient *http.Client
	verifyTLS  bool
	timeout    time.Duration

	log *slog.Logger
}

// Option configures the client.
type Option func(*Client)

// WithPlatform selects the robot platform. The default is panda.
func WithPlatform(p Platform) Option {
	return func(c *Client) {
		c.platform = p
	}
}

// WithTokenStore sets the store used to load and persist control tokens.
// Without this option the default per-user store is used.
func WithTokenStore(s *tokenstore.Store) Option {
	return func(c *Client) {
		c.store = s
	}
}

// WithLogger sets the base logger. Without this option the client logs
// through the process-wide logging configuration.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// WithTLSVerification enables certificate and hostname verification.
// Verification is off by default because the device presents a
// self-signed certificate.
func WithTLSVerification() Option {
	return func(c *Client) {
		c.verifyTLS = true
	}
}

// WithRequestTimeout overrides the default per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New creates a client bound to host. The control token recorded for the
// host, if any, is loaded from the token store so a previous claim can be
// retaken without forcing.
func New(host string, opts ...Option) (*Client, error) {
	c := &Client{
		host:     host,
		platform: PlatformPanda,
		username: "not set",
		timeout:  defaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.store == nil {
		store, err := tokenstore.Default()
		if err != nil {
			return nil, fmt.Errorf("resolve token store: %w", err)
		}
		c.store = store
	}

	if c.log == nil {
		c.log = logging.Control()
	}
	c.log = logging.WithHost(c.log, host).With("session", uuid.NewString())

	c.httpClient = &http.Client{
		Transport: &http.Transport{TLSClientConfig: c.tlsConfig()},
	}

	token, err := c.store.Load(host)
	if err != nil {
		return nil, fmt.Errorf("load control token: %w", err)
	}
	c.token = token

	return c, nil
}

// Host returns the hostname the client is bound to.
func (c *Client) Host() string {
	return c.host
}

// LoggedIn reports whether Login has succeeded on this client.
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

// Username returns the identity set by the last successful Login.
func (c *Client) Username() string {
	return c.username
}

// EncodePassword derives the digest the Desk login endpoint expects:
// the SHA256 of "{password}#{username}@franka", rendered as comma-joined
// decimal byte values and base64 encoded in MIME transfer form, with a
// newline after every 76 characters and one at the end. The device is
// known to accept exactly this form, so the line breaks are part of the
// wire format and must not be stripped.
func EncodePassword(username, password string) string {
	sum := sha256.Sum256([]byte(password + "#" + username + "@franka"))
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = strconv.Itoa(int(b))
	}
	enc := base64.StdEncoding.EncodeToString([]byte(strings.Join(parts, ",")))

	var digest strings.Builder
	for len(enc) > 76 {
		digest.WriteString(enc[:76])
		digest.WriteByte('\n')
		enc = enc[76:]
	}
	digest.WriteString(enc)
	digest.WriteByte('\n')
	return digest.String()
}

// Login exchanges credentials for a session cookie. The cookie is kept on
// the client and attached to every subsequent request and channel.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body, err := c.request(ctx, http.MethodPost, "/admin/api/login", requestOptions{
		json: map[string]string{
			"login":    username,
			"password": EncodePassword(username, password),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	c.cookie = string(body)
	c.loggedIn = true
	c.username = username
	c.log.Info("login successful", "username", username)
	return nil
}

// Logout invalidates the session on the device and clears the cookie.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.request(ctx, http.MethodPost, "/admin/api/logout", requestOptions{}); err != nil {
		return err
	}
	c.loggedIn = false
	c.cookie = ""
	c.log.Info("logout successful")
	return nil
}

// activeTokenResponse mirrors GET /admin/api/control-token.
type activeTokenResponse struct {
	ActiveToken *struct {
		ID      json.Number `json:"id"`
		OwnedBy string      `json:"ownedBy"`
	} `json:"activeToken"`
}

// getActiveToken fetches the token currently holding control of the
// device. Legacy platforms have no token concept and always report the
// zero token.
func (c *Client) getActiveToken(ctx context.Context) (tokenstore.Token, error) {
	var token tokenstore.Token
	if c.platform.legacy() {
		return token, nil
	}
	body, err := c.request(ctx, http.MethodGet, "/admin/api/control-token", requestOptions{})
	if err != nil {
		return token, err
	}
	var resp activeTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return token, fmt.Errorf("decode active token: %w", err)
	}
	if resp.ActiveToken != nil {
		token.ID = resp.ActiveToken.ID.String()
		token.OwnedBy = resp.ActiveToken.OwnedBy
	}
	return token, nil
}

// CheckHasControl reports whether the locally held token matches the
// device's active token.
func (c *Client) CheckHasControl(ctx context.Context) (bool, error) {
	active, err := c.getActiveToken(ctx)
	if err != nil {
		return false, err
	}
	return c.token.ID == active.ID, nil
}

// TakeControl claims exclusive control of the Desk, generating a new
// control token and persisting it. The result is false when control was
// denied: another user holds it and force was not requested, or the
// forced takeover's physical confirmation window elapsed. Errors are
// reserved for transport and persistence failures.
//
// With force, the device evicts the current holder but demands proof of
// physical presence: the circle button on the robot's Pilot must be
// pressed within the confirmation window the device reports. Without the
// press the takeover is abandoned and nothing is persisted.
//
// A session that already holds the active token is in control regardless
// of force; no new token is requested. On legacy platforms there is no
// token concept and TakeControl trivially succeeds.
func (c *Client) TakeControl(ctx context.Context, force bool) (bool, error) {
	if c.platform.legacy() {
		return true, nil
	}

	active, err := c.getActiveToken(ctx)
	if err != nil {
		return false, err
	}
	if active.ID != "" && c.token.ID == active.ID {
		c.log.Info("retaken control", "token_id", active.ID)
		return true, nil
	}
	if active.ID != "" && !force {
		c.log.Warn("cannot take control: another user is in control", "owned_by", active.OwnedBy)
		return false, nil
	}

	path := "/admin/api/control-token/request"
	if force {
		path += "?force"
	}
	body, err := c.request(ctx, http.MethodPost, path, requestOptions{
		json: map[string]string{"requestedBy": c.username},
	})
	if err != nil {
		return false, err
	}
	var issued struct {
		ID    json.Number `json:"id"`
		Token string      `json:"token"`
	}
	if err := json.Unmarshal(body, &issued); err != nil {
		return false, fmt.Errorf("decode issued token: %w", err)
	}

	if force {
		confirmed, err := c.confirmPhysicalAccess(ctx)
		if err != nil {
			return false, err
		}
		if !confirmed {
			c.log.Warn("control not confirmed, giving up")
			return false, nil
		}
	}

	token := tokenstore.Token{
		ID:      issued.ID.String(),
		OwnedBy: c.username,
		Token:   issued.Token,
	}
	if err := c.store.Save(c.host, token); err != nil {
		return false, fmt.Errorf("persist control token: %w", err)
	}
	c.token = token
	c.log.Info("taken control", "token_id", token.ID)
	return true, nil
}

// confirmPhysicalAccess waits for the circle button press that confirms a
// forced takeover. The confirmation window comes from the device's safety
// settings. Returns false when the window elapses without a press.
func (c *Client) confirmPhysicalAccess(ctx context.Context) (bool, error) {
	body, err := c.request(ctx, http.MethodGet, "/admin/api/safety", requestOptions{})
	if err != nil {
		return false, err
	}
	var safety struct {
		TokenForceTimeout float64 `json:"tokenForceTimeout"`
	}
	if err := json.Unmarshal(body, &safety); err != nil {
		return false, fmt.Errorf("decode safety settings: %w", err)
	}
	window := time.Duration(safety.TokenForceTimeout * float64(time.Second))
	if window <= 0 {
		return false, nil
	}
	c.log.Warn("confirm control by pressing the circle button on the robot",
		"window_seconds", safety.TokenForceTimeout)

	_, pressed, err := c.WaitForButtonPress(ctx, ButtonCircle, window)
	if err != nil {
		return false, err
	}
	return pressed, nil
}

// SetMode switches the Desk operating mode. Legacy platforms do not
// support mode switching and report ErrUnsupportedOnPlatform.
func (c *Client) SetMode(ctx context.Context, mode Mode) error {
	if c.platform.legacy() {
		return fmt.Errorf("set mode: %w", ErrUnsupportedOnPlatform)
	}
	path, err := mode.path()
	if err != nil {
		return err
	}
	_, err = c.request(ctx, http.MethodPost, path, requestOptions{
		headers: map[string]string{"X-Control-Token": c.token.Token},
		timeout: slowRequestTimeout,
	})
	if err != nil {
		return err
	}
	c.log.Info("operating mode set", "mode", string(mode))
	return nil
}

// Lock engages the brakes and blocks until all joints report locked, so
// the call returns only once the physical state is confirmed.
func (c *Client) Lock(ctx context.Context, force bool) error {
	if err := c.requestBrakes(ctx, c.platform.lockPath(), force); err != nil {
		return err
	}
	if _, err := c.WaitForBrakesClosed(ctx, 0); err != nil {
		return err
	}
	c.log.Info("brakes locked")
	return nil
}

// Unlock releases the brakes and blocks until all joints report unlocked.
func (c *Client) Unlock(ctx context.Context, force bool) error {
	if err := c.requestBrakes(ctx, c.platform.unlockPath(), force); err != nil {
		return err
	}
	if _, err := c.WaitForBrakesOpen(ctx, 0); err != nil {
		return err
	}
	c.log.Info("brakes unlocked")
	return nil
}

func (c *Client) requestBrakes(ctx context.Context, path string, force bool) error {
	_, err := c.request(ctx, http.MethodPost, path, requestOptions{
		form:    map[string]string{"force": strconv.FormatBool(force)},
		headers: map[string]string{"X-Control-Token": c.token.Token},
		timeout: slowRequestTimeout,
	})
	return err
}

// Reboot restarts the robot hardware. Open connections will drop.
func (c *Client) Reboot(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodPost, "/admin/api/reboot", requestOptions{
		headers: map[string]string{"X-Control-Token": c.token.Token},
	})
	if err != nil {
		return err
	}
	c.log.Info("reboot requested")
	return nil
}

// ActivateFCI enables the Franka Control Interface. The brakes must be
// unlocked first. On legacy platforms this is a no-op.
func (c *Client) ActivateFCI(ctx context.Context) error {
	if c.platform.legacy() {
		return nil
	}
	_, err := c.request(ctx, http.MethodPost, "/admin/api/control-token/fci", requestOptions{
		json: map[string]string{"token": c.token.Token},
	})
	return err
}

// DeactivateFCI disables the Franka Control Interface. On legacy
// platforms this is a no-op.
func (c *Client) DeactivateFCI(ctx context.Context) error {
	if c.platform.legacy() {
		return nil
	}
	_, err := c.request(ctx, http.MethodDelete, "/admin/api/control-token/fci", requestOptions{
		json: map[string]string{"token": c.token.Token},
	})
	return err
}
