package domain

import "errors"

var (
	ErrServerNotFound = errors.New("server not found")
	ErrInvalidCommand = errors.New("invalid server command")

	// ErrDNS: the DNS upsert failed before anything else happened.
	// Nothing was launched and nothing was persisted.
	ErrDNS = errors.New("dns record update failed")

	// ErrProvision: the instance launch failed. The DNS record created in
	// the step before is left behind; it points at the placeholder
	// address and is cleaned up with the zone, not per-request.
	ErrProvision = errors.New("instance launch failed")

	// ErrOrphanedInstance: the instance launched but the row write
	// failed, leaving a running instance with no database handle. Needs
	// operator reconciliation (cmd/reconciler).
	ErrOrphanedInstance = errors.New("instance launched but server row was not persisted")
)
