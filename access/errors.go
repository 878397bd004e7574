package access

import "errors"

var (
	// ErrPermissionDenied indicates an access-control refusal.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrResourceLookup indicates a policy could not supply a resource context.
	ErrResourceLookup = errors.New("resource lookup failed")
)
