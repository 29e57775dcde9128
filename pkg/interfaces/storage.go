package interfaces

import (
	"context"

	"github.com/brandall10/brandall10.github.io/pkg/storage"
)

// StorageProvider is the query/exec/transaction contract repositories and the
// generator's artifact mirror depend on. Implementations should prefer
// satisfying pkg/storage.Provider (and optional mix-ins) directly.
type StorageProvider = storage.Provider

// StorageReloadable mirrors storage.Reloadable for callers holding the
// interface through this package.
type StorageReloadable interface {
	Reload(ctx context.Context, cfg storage.Config) error
}

// StorageCapabilityReporter mirrors storage.CapabilityReporter.
type StorageCapabilityReporter interface {
	Capabilities() storage.Capabilities
}

// Rows aliases storage.Rows.
type Rows = storage.Rows

// Result aliases storage.Result.
type Result = storage.Result

// Transaction aliases storage.Transaction.
type Transaction = storage.Transaction
