// Package errs defines the error taxonomy shared by orchestrators and the
// external-store adapters. Adapters translate vendor-specific failure signals
// (HTTP 404/409, SDK error codes) into these sentinels so the service layer
// can branch with errors.Is without importing any SDK.
package errs

import "errors"

var (
	// ErrNotFound is raised by any collaborator when a named resource does
	// not exist. Deletion paths treat it as success; reads treat it as a
	// legitimate "absent" state.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict signals the resource already exists (duplicate tenant id,
	// second alerting job).
	ErrConflict = errors.New("resource already exists")

	// ErrPreconditionFailed signals an operation refused up front: tenant
	// missing or not fully deployed, start/stop of a job that was never
	// created. Never retried.
	ErrPreconditionFailed = errors.New("precondition failed")
)
