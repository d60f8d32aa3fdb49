// Package configsvc is the HTTP client for the platform config service. The
// orchestrator only needs one call from it: creating the default device
// group for a freshly provisioned tenant.
package configsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// TenantHeader carries the tenant scope on config-service calls.
const TenantHeader = "X-Tenant-Id"

// Client talks to the config service REST API.
type Client struct {
	http *resty.Client
}

// New builds a client for the config service at baseURL.
func New(baseURL string) *Client {
	if baseURL == "" {
		panic("config service base url is required")
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

type deviceGroup struct {
	DisplayName string `json:"displayName"`
	Conditions  []any  `json:"conditions"`
}

// CreateDefaultDeviceGroup creates the catch-all "all devices" group the UI
// expects every tenant to have.
func (c *Client) CreateDefaultDeviceGroup(ctx context.Context, tenantID string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(TenantHeader, tenantID).
		SetBody(deviceGroup{DisplayName: "Default", Conditions: []any{}}).
		Post("/v1/devicegroups")
	if err != nil {
		return fmt.Errorf("create default device group: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("create default device group: config service returned %s", resp.Status())
	}
	return nil
}
