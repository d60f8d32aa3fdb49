// Package runbook triggers the asynchronous provisioning/deprovisioning
// workflows through webhook endpoints. Calls report submission failure only;
// workflow completion is observed out of band (the hub runbook flips the
// tenant record's deployed flag when it finishes).
package runbook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Webhooks holds the four workflow endpoints.
type Webhooks struct {
	CreateIoTHub   string
	DeleteIoTHub   string
	CreateAlerting string
	DeleteAlerting string
}

// Client fires runbook webhooks.
type Client struct {
	http  *resty.Client
	hooks Webhooks
}

// New builds a trigger client.
func New(hooks Webhooks) *Client {
	c := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	return &Client{http: c, hooks: hooks}
}

type hubPayload struct {
	TenantID   string `json:"tenantId"`
	IoTHubName string `json:"iotHubName"`
	DPSName    string `json:"dpsName"`
}

type alertingPayload struct {
	TenantID   string `json:"tenantId"`
	JobName    string `json:"saJobName"`
	IoTHubName string `json:"iotHubName,omitempty"`
}

func (c *Client) fire(ctx context.Context, url, workflow string, payload any) error {
	if url == "" {
		return fmt.Errorf("%s webhook is not configured", workflow)
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(payload).Post(url)
	if err != nil {
		return fmt.Errorf("trigger %s runbook: %w", workflow, err)
	}
	if resp.IsError() {
		return fmt.Errorf("trigger %s runbook: webhook returned %s", workflow, resp.Status())
	}
	return nil
}

func (c *Client) CreateIoTHub(ctx context.Context, tenantID, hubName, dpsName string) error {
	return c.fire(ctx, c.hooks.CreateIoTHub, "create-iot-hub",
		hubPayload{TenantID: tenantID, IoTHubName: hubName, DPSName: dpsName})
}

func (c *Client) DeleteIoTHub(ctx context.Context, tenantID, hubName, dpsName string) error {
	return c.fire(ctx, c.hooks.DeleteIoTHub, "delete-iot-hub",
		hubPayload{TenantID: tenantID, IoTHubName: hubName, DPSName: dpsName})
}

func (c *Client) CreateAlerting(ctx context.Context, tenantID, jobName, hubName string) error {
	return c.fire(ctx, c.hooks.CreateAlerting, "create-alerting",
		alertingPayload{TenantID: tenantID, JobName: jobName, IoTHubName: hubName})
}

func (c *Client) DeleteAlerting(ctx context.Context, tenantID, jobName string) error {
	return c.fire(ctx, c.hooks.DeleteAlerting, "delete-alerting",
		alertingPayload{TenantID: tenantID, JobName: jobName})
}
