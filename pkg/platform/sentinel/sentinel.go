package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Store implementations return
// these (optionally wrapped) so services can translate them into domain
// errors at the boundary.
//
// - ErrNotFound: key does not exist in the store
// - ErrUnavailable: store temporarily unreachable (connectivity failure)
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
