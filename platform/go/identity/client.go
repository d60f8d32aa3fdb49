// Package identity is the HTTP client for the identity-gateway service,
// which owns user/tenant memberships and per-user settings. Consumed as an
// opaque collaborator; token issuance and claim extraction stay on the
// gateway side.
package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/meridianiot/meridian/platform/go/errs"
)

// Client talks to the identity-gateway REST API.
type Client struct {
	http *resty.Client
}

// New builds a client for the gateway at baseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		panic("identity gateway base url is required")
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

type rolesBody struct {
	Roles []string `json:"roles"`
}

type settingBody struct {
	Value string `json:"value"`
}

type tenantsBody struct {
	Tenants []string `json:"tenants"`
}

func statusErr(resp *resty.Response) error {
	switch resp.StatusCode() {
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusConflict:
		return errs.ErrConflict
	}
	return fmt.Errorf("identity gateway returned %s", resp.Status())
}

// AddTenantForUser grants the user membership in the tenant with the given
// roles.
func (c *Client) AddTenantForUser(ctx context.Context, userID, tenantID string, roles []string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(rolesBody{Roles: roles}).
		SetPathParams(map[string]string{"user": userID, "tenant": tenantID}).
		Post("/v1/users/{user}/tenants/{tenant}")
	if err != nil {
		return fmt.Errorf("add tenant for user: %w", err)
	}
	if resp.IsError() {
		return statusErr(resp)
	}
	return nil
}

// DeleteTenantForAllUsers removes the tenant from every member's profile.
func (c *Client) DeleteTenantForAllUsers(ctx context.Context, tenantID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("tenant", tenantID).
		Delete("/v1/tenants/{tenant}/users")
	if err != nil {
		return fmt.Errorf("delete tenant memberships: %w", err)
	}
	if resp.IsError() {
		return statusErr(resp)
	}
	return nil
}

// GetSettingForUser returns errs.ErrNotFound when the setting is unset.
func (c *Client) GetSettingForUser(ctx context.Context, userID, key string) (string, error) {
	var out settingBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParams(map[string]string{"user": userID, "key": key}).
		Get("/v1/users/{user}/settings/{key}")
	if err != nil {
		return "", fmt.Errorf("get user setting: %w", err)
	}
	if resp.IsError() {
		return "", statusErr(resp)
	}
	return out.Value, nil
}

// AddSettingForUser creates the setting.
func (c *Client) AddSettingForUser(ctx context.Context, userID, key, value string) error {
	return c.writeSetting(ctx, userID, key, value, resty.MethodPost)
}

// UpdateSettingForUser overwrites the setting.
func (c *Client) UpdateSettingForUser(ctx context.Context, userID, key, value string) error {
	return c.writeSetting(ctx, userID, key, value, resty.MethodPut)
}

func (c *Client) writeSetting(ctx context.Context, userID, key, value, method string) error {
	req := c.http.R().
		SetContext(ctx).
		SetBody(settingBody{Value: value}).
		SetPathParams(map[string]string{"user": userID, "key": key})

	var (
		resp *resty.Response
		err  error
	)
	if method == resty.MethodPost {
		resp, err = req.Post("/v1/users/{user}/settings/{key}")
	} else {
		resp, err = req.Put("/v1/users/{user}/settings/{key}")
	}
	if err != nil {
		return fmt.Errorf("write user setting: %w", err)
	}
	if resp.IsError() {
		return statusErr(resp)
	}
	return nil
}

// GetAllTenantsForUser lists the tenant ids the user belongs to.
func (c *Client) GetAllTenantsForUser(ctx context.Context, userID string) ([]string, error) {
	var out tenantsBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetPathParam("user", userID).
		Get("/v1/users/{user}/tenants")
	if err != nil {
		return nil, fmt.Errorf("list tenants for user: %w", err)
	}
	if resp.IsError() {
		return nil, statusErr(resp)
	}
	return out.Tenants, nil
}
