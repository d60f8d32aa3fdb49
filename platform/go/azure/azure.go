// Package azure holds thin adapters over the Azure SDK clients the
// orchestrators depend on. Each adapter translates the SDK's failure signals
// into the shared error taxonomy and nothing more; sequencing and policy live
// in the service layer.
package azure

import (
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/meridianiot/meridian/platform/go/errs"
)

// translateResponseError maps HTTP 404/409 from any Azure data-plane or ARM
// call to the shared sentinels. Other errors pass through untouched.
func translateResponseError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.StatusCode {
		case http.StatusNotFound:
			return errs.ErrNotFound
		case http.StatusConflict:
			return errs.ErrConflict
		}
	}
	return err
}
