package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// errUserNotFound is returned by findUserID when no user has the email.
var errUserNotFound = errors.New("user not found")

// AdminClient talks to the Supabase Admin API. prdctl uses it to provision
// the owner of seeded PRDs; the server never does.
type AdminClient struct {
	supabaseURL string
	serviceKey  string
	httpClient  *http.Client
}

// NewAdminClient creates a new Supabase Admin API client.
// Requires the service role key (SUPABASE_KEY).
func NewAdminClient(supabaseURL, serviceKey string) *AdminClient {
	return &AdminClient{
		supabaseURL: supabaseURL,
		serviceKey:  serviceKey,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type createUserRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	EmailConfirm bool   `json:"email_confirm"`
}

type adminUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type listUsersResponse struct {
	Users []adminUser `json:"users"`
}

// EnsureUser returns the ID of the user with email, creating a confirmed
// account with password when none exists.
func (c *AdminClient) EnsureUser(ctx context.Context, email, password string) (string, error) {
	id, err := c.findUserID(ctx, email)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, errUserNotFound) {
		return "", err
	}
	return c.createUser(ctx, email, password)
}

func (c *AdminClient) findUserID(ctx context.Context, email string) (string, error) {
	var list listUsersResponse
	if err := c.do(ctx, http.MethodGet, "/auth/v1/admin/users", nil, &list); err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}
	for _, user := range list.Users {
		if user.Email == email {
			return user.ID, nil
		}
	}
	return "", errUserNotFound
}

func (c *AdminClient) createUser(ctx context.Context, email, password string) (string, error) {
	var created adminUser
	payload := createUserRequest{Email: email, Password: password, EmailConfirm: true}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", payload, &created); err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return created.ID, nil
}

// do sends an authenticated admin request and decodes a 2xx JSON reply into out.
func (c *AdminClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.supabaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
