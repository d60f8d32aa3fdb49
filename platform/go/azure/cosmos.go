package azure

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/meridianiot/meridian/platform/go/errs"
)

// CosmosStore manages tenant document collections across the fixed set of
// Cosmos databases named in the resource catalog.
type CosmosStore struct {
	client *azcosmos.Client
}

// NewCosmosStore connects with a connection string.
func NewCosmosStore(connString string) (*CosmosStore, error) {
	client, err := azcosmos.NewClientFromConnectionString(connString, nil)
	if err != nil {
		return nil, fmt.Errorf("connect cosmos: %w", err)
	}
	return &CosmosStore{client: client}, nil
}

// EnsureCollection creates the container when missing; an existing container
// is not an error.
func (s *CosmosStore) EnsureCollection(ctx context.Context, database, collectionID, partitionKeyPath string) error {
	db, err := s.client.NewDatabase(database)
	if err != nil {
		return fmt.Errorf("open database %q: %w", database, err)
	}

	props := azcosmos.ContainerProperties{
		ID: collectionID,
		PartitionKeyDefinition: azcosmos.PartitionKeyDefinition{
			Paths: []string{partitionKeyPath},
		},
	}
	if _, err := db.CreateContainer(ctx, props, nil); err != nil {
		if errors.Is(translateResponseError(err), errs.ErrConflict) {
			return nil
		}
		return fmt.Errorf("create container %q: %w", collectionID, err)
	}
	return nil
}

// DeleteCollection removes the container, reporting errs.ErrNotFound when it
// is already gone.
func (s *CosmosStore) DeleteCollection(ctx context.Context, database, collectionID string) error {
	container, err := s.client.NewContainer(database, collectionID)
	if err != nil {
		return fmt.Errorf("open container %q: %w", collectionID, err)
	}
	if _, err := container.Delete(ctx, nil); err != nil {
		return translateResponseError(err)
	}
	return nil
}
