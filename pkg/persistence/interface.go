package persistence

import "errors"

// ErrStoreClosed is returned by every operation on a closed store
var ErrStoreClosed = errors.New("address store is closed")

// IAddressStore persists the wallet addresses a user has added locally, so
// they can be offered again when whitelisting.
// All implementations must be thread-safe.
type IAddressStore interface {
	// AddAddresses merges addresses into the book. Duplicates are dropped and
	// the order of first insertion is kept.
	AddAddresses(addresses []string) error

	// ListAddresses returns the stored addresses in insertion order.
	// Returns an empty slice if the book is empty.
	ListAddresses() ([]string, error)

	// ClearAddresses empties the book. Idempotent.
	ClearAddresses() error

	// Close shuts down the store. Idempotent.
	Close() error

	// HealthCheck returns nil if the store is operational.
	HealthCheck() error
}
