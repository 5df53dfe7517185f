package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const maxResponseBytes = 1 << 20

// Config configures a Client.
type Config struct {
	// BaseURL is the root of the registry API, e.g. "http://localhost:8080".
	BaseURL string

	// Store, when set, is cleared as part of 401 invalidation so a rejected
	// session does not survive a restart.
	Store TokenStore

	// HTTPClient overrides the transport. A client with a 30s timeout is
	// used when nil.
	HTTPClient *http.Client

	// Logger defaults to a disabled logger when nil.
	Logger *zerolog.Logger

	// OnUnauthorized is the signal to send the user back to the login
	// surface. It fires exactly once per attached credential when the
	// server rejects it, no matter how many requests fail concurrently.
	// Requests that carried no credential, login above all, never fire it.
	OnUnauthorized func()
}

// Client talks to the registry API. It owns the bearer credential between
// calls: SetToken attaches one to every subsequent authenticated request,
// and a 401 on such a request detaches it, clears the store, and fires the
// OnUnauthorized signal once.
type Client struct {
	baseURL string
	hc      *http.Client
	store   TokenStore
	log     zerolog.Logger

	mu             sync.Mutex
	token          string
	epoch          uint64
	sessionHook    func()
	onUnauthorized func()
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("registry: base url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}
	return &Client{
		baseURL:        base,
		hc:             hc,
		store:          cfg.Store,
		log:            log,
		onUnauthorized: cfg.OnUnauthorized,
	}, nil
}

// SetToken attaches a bearer credential to every subsequent authenticated
// request. It opens a new credential epoch: late rejections of the previous
// credential no longer invalidate anything.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.epoch++
	c.mu.Unlock()
}

// ClearToken detaches the credential without touching the store.
func (c *Client) ClearToken() {
	c.mu.Lock()
	c.token = ""
	c.epoch++
	c.mu.Unlock()
}

// Token returns the attached credential, empty when detached.
func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// bindSessionHook registers the session machine's invalidation handler. It
// runs before OnUnauthorized so state is consistent when the signal fires.
func (c *Client) bindSessionHook(fn func()) {
	c.mu.Lock()
	c.sessionHook = fn
	c.mu.Unlock()
}

// --- Credential endpoints ---

// Login exchanges credentials for a token and the account behind it. The
// request carries no bearer credential, so a rejection here never triggers
// session invalidation.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, *User, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", creds, &out, false); err != nil {
		return "", nil, err
	}
	return out.Token, out.User, nil
}

// Register creates an account. Like Login it runs unauthenticated.
func (c *Client) Register(ctx context.Context, profile Profile) (*User, error) {
	var out registerResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", profile, &out, false); err != nil {
		return nil, err
	}
	return out.User, nil
}

// Me fetches the account behind the attached credential.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status asks the server how it sees the calling session.
func (c *Client) Status(ctx context.Context) (*AuthStatus, error) {
	var out AuthStatus
	if err := c.do(ctx, http.MethodGet, "/auth/status", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the caller's password.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	return c.do(ctx, http.MethodPost, "/auth/change-password", body, nil, true)
}

// RequestPasswordReset starts a reset for the given address.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*PasswordReset, error) {
	var out PasswordReset
	body := map[string]string{"email": email}
	if err := c.do(ctx, http.MethodPost, "/auth/password-reset", body, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// ConfirmPasswordReset finishes a reset with the token from the request step.
func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "newPassword": newPassword}
	return c.do(ctx, http.MethodPost, "/auth/password-reset/confirm", body, nil, false)
}

// --- Account administration ---

// ListUsersOptions filters the account listing. A zero Page or Limit leaves
// the server default in place.
type ListUsersOptions struct {
	Role  string
	Page  int
	Limit int
}

func (c *Client) ListUsers(ctx context.Context, opts ListUsersOptions) (*UserPage, error) {
	p := "/auth/users"
	if opts.Role != "" {
		p = "/auth/users/role/" + url.PathEscape(opts.Role)
	}
	p = withPaging(p, opts.Page, opts.Limit)
	var out UserPage
	if err := c.do(ctx, http.MethodGet, p, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserActive enables or disables an account.
func (c *Client) SetUserActive(ctx context.Context, id string, active bool) error {
	action := "deactivate"
	if active {
		action = "activate"
	}
	p := "/auth/users/" + url.PathEscape(id) + "/" + action
	return c.do(ctx, http.MethodPut, p, nil, nil, true)
}

// --- Doctor directory ---

// ListDoctorsOptions filters the directory listing.
type ListDoctorsOptions struct {
	Specialty string
	Page      int
	Limit     int
}

func (c *Client) CreateDoctor(ctx context.Context, input DoctorInput) (*Doctor, error) {
	var out Doctor
	if err := c.do(ctx, http.MethodPost, "/v1/doctors", input, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	var out Doctor
	p := "/v1/doctors/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodGet, p, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetDoctorByLicense(ctx context.Context, license string) (*Doctor, error) {
	var out Doctor
	p := "/v1/doctors/license/" + url.PathEscape(license)
	if err := c.do(ctx, http.MethodGet, p, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListDoctors(ctx context.Context, opts ListDoctorsOptions) (*DoctorPage, error) {
	p := "/v1/doctors"
	q := url.Values{}
	if opts.Specialty != "" {
		q.Set("specialty", opts.Specialty)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if enc := q.Encode(); enc != "" {
		p += "?" + enc
	}
	var out DoctorPage
	if err := c.do(ctx, http.MethodGet, p, nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDoctor(ctx context.Context, id string, update DoctorUpdate) (*Doctor, error) {
	var out Doctor
	p := "/v1/doctors/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, p, update, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteDoctor(ctx context.Context, id string) error {
	p := "/v1/doctors/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, p, nil, nil, true)
}

func (c *Client) DoctorCounts(ctx context.Context) (*DoctorCounts, error) {
	var out DoctorCounts
	if err := c.do(ctx, http.MethodGet, "/v1/doctors/counts", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Pipeline ---

// do sends one request. Transport failures come back as plain wrapped
// errors; any non-2xx answer becomes an *APIError. When authed is true the
// current credential is attached, and a 401 on a request that carried one
// runs the invalidation path.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	var epoch uint64
	attached := false
	if authed {
		epoch, attached = c.attach(req)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if cerr := resp.Body.Close(); cerr != nil && readErr == nil {
		readErr = cerr
	}
	if readErr != nil {
		return fmt.Errorf("read response body: %w", readErr)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
		return nil
	}

	apiErr := decodeAPIError(resp.StatusCode, data)
	if resp.StatusCode == http.StatusUnauthorized && attached {
		c.invalidate(epoch)
	}
	return apiErr
}

// attach sets the bearer header when a credential is held and reports the
// epoch it belonged to.
func (c *Client) attach(req *http.Request) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" {
		return c.epoch, false
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return c.epoch, true
}

// invalidate handles an authentication-rejected response. The epoch tie
// makes the work happen once per credential: the first rejection wins, later
// rejections of the same credential and any rejection of an older one are
// no-ops.
func (c *Client) invalidate(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	c.epoch++
	c.token = ""
	hook := c.sessionHook
	signal := c.onUnauthorized
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(); err != nil {
			c.log.Error().Err(err).Msg("clear token store after rejected session")
		}
	}
	c.log.Debug().Msg("session credential rejected, detached")
	if hook != nil {
		hook()
	}
	if signal != nil {
		signal()
	}
}

func decodeAPIError(status int, data []byte) *APIError {
	var envelope struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
		return &APIError{Status: status, Message: envelope.Error, Fields: envelope.Fields}
	}
	return &APIError{Status: status}
}

func withPaging(p string, page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if enc := q.Encode(); enc != "" {
		return p + "?" + enc
	}
	return p
}
