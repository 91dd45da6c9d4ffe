package service

import "errors"

// Validation and state-machine failures surface as 4xx and never leave
// partial writes behind. ErrStoreUnavailable wraps transient I/O failures;
// the whole Approve call is safe to retry because the request only becomes
// terminal after every data mutation committed.
var (
	ErrInvalidTransition     = errors.New("request is not in a reviewable state")
	ErrUnknownImageReference = errors.New("unknown image reference")
	ErrAmbiguousPrimary      = errors.New("more than one added image is flagged primary")
	ErrInvalidPrimaryTarget  = errors.New("invalid primary image target")
	ErrTransactionTooLarge   = errors.New("propagation exceeds the transaction item limit")
	ErrConcurrentUpdate      = errors.New("listing was modified concurrently")
	ErrStoreUnavailable      = errors.New("store unavailable")

	ErrListingNotFound = errors.New("listing not found")
	ErrRequestNotFound = errors.New("change request not found")
	ErrNotListingOwner = errors.New("listing does not belong to this host")
)
