package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/streamanalytics/armstreamanalytics"

	alerting "github.com/meridianiot/meridian/domains/alerting/be/service"
)

// activeJobState is the control plane's label for a running job.
const activeJobState = "Running"

// StreamAnalyticsClient is the alerting-job control plane over the ARM
// Stream Analytics API. Start and Stop submit the transition and return
// without waiting for it to complete.
type StreamAnalyticsClient struct {
	jobs          *armstreamanalytics.StreamingJobsClient
	resourceGroup string
}

// NewStreamAnalyticsClient authenticates with the default Azure credential
// chain and scopes all calls to one resource group.
func NewStreamAnalyticsClient(subscriptionID, resourceGroup string) (*StreamAnalyticsClient, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("build azure credential: %w", err)
	}
	return NewStreamAnalyticsClientWithCredential(subscriptionID, resourceGroup, cred)
}

// NewStreamAnalyticsClientWithCredential is the injectable variant.
func NewStreamAnalyticsClientWithCredential(subscriptionID, resourceGroup string, cred azcore.TokenCredential) (*StreamAnalyticsClient, error) {
	factory, err := armstreamanalytics.NewClientFactory(subscriptionID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("build stream analytics client: %w", err)
	}
	return &StreamAnalyticsClient{
		jobs:          factory.NewStreamingJobsClient(),
		resourceGroup: resourceGroup,
	}, nil
}

// GetJob returns errs.ErrNotFound when the job does not exist.
func (c *StreamAnalyticsClient) GetJob(ctx context.Context, name string) (alerting.JobStatus, error) {
	resp, err := c.jobs.Get(ctx, c.resourceGroup, name, nil)
	if err != nil {
		return alerting.JobStatus{}, translateResponseError(err)
	}

	status := alerting.JobStatus{Name: name}
	if resp.Name != nil {
		status.Name = *resp.Name
	}
	if resp.Properties != nil && resp.Properties.JobState != nil {
		status.State = *resp.Properties.JobState
	}
	return status, nil
}

// Start submits the start transition.
func (c *StreamAnalyticsClient) Start(ctx context.Context, name string) error {
	if _, err := c.jobs.BeginStart(ctx, c.resourceGroup, name, nil); err != nil {
		return translateResponseError(err)
	}
	return nil
}

// Stop submits the stop transition.
func (c *StreamAnalyticsClient) Stop(ctx context.Context, name string) error {
	if _, err := c.jobs.BeginStop(ctx, c.resourceGroup, name, nil); err != nil {
		return translateResponseError(err)
	}
	return nil
}

// JobIsActive reports whether the job is in the running state.
func (c *StreamAnalyticsClient) JobIsActive(job alerting.JobStatus) bool {
	return job.State == activeJobState
}

var _ alerting.StreamAnalytics = (*StreamAnalyticsClient)(nil)
