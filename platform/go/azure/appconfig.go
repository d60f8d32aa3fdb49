package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azappconfig"
)

// AppConfigStore is the key/value configuration store backed by Azure App
// Configuration. Tenant collection ids are registered here under
// "tenant:{tenantId}:{collection}-collection" keys.
type AppConfigStore struct {
	client *azappconfig.Client
}

// NewAppConfigStore connects with a connection string.
func NewAppConfigStore(connString string) (*AppConfigStore, error) {
	client, err := azappconfig.NewClientFromConnectionString(connString, nil)
	if err != nil {
		return nil, fmt.Errorf("connect app configuration: %w", err)
	}
	return &AppConfigStore{client: client}, nil
}

// GetValue returns errs.ErrNotFound for a missing key.
func (s *AppConfigStore) GetValue(ctx context.Context, key string) (string, error) {
	resp, err := s.client.GetSetting(ctx, key, nil)
	if err != nil {
		return "", translateResponseError(err)
	}
	if resp.Value == nil {
		return "", nil
	}
	return *resp.Value, nil
}

// SetValue creates or overwrites a key.
func (s *AppConfigStore) SetValue(ctx context.Context, key, value string) error {
	if _, err := s.client.SetSetting(ctx, key, &value, nil); err != nil {
		return translateResponseError(err)
	}
	return nil
}

// DeleteKey removes a key; deleting an absent key reports errs.ErrNotFound.
func (s *AppConfigStore) DeleteKey(ctx context.Context, key string) error {
	if _, err := s.client.DeleteSetting(ctx, key, nil); err != nil {
		return translateResponseError(err)
	}
	return nil
}
