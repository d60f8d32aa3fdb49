package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/meridianiot/meridian/platform/go/errs"
)

// BlobStore deletes tenant blob containers.
type BlobStore struct {
	client *azblob.Client
}

// NewBlobStore connects with a storage account connection string.
func NewBlobStore(connString string) (*BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connString, nil)
	if err != nil {
		return nil, fmt.Errorf("connect blob storage: %w", err)
	}
	return &BlobStore{client: client}, nil
}

// DeleteContainer removes a container, reporting errs.ErrNotFound when it is
// already gone.
func (s *BlobStore) DeleteContainer(ctx context.Context, name string) error {
	if _, err := s.client.DeleteContainer(ctx, name, nil); err != nil {
		if bloberror.HasCode(err, bloberror.ContainerNotFound) {
			return errs.ErrNotFound
		}
		return err
	}
	return nil
}
