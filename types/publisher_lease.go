package types

import (
	"context"
	"time"
)

// PublisherLease decides which of several runners for the same store publishes layouts.
//
// Every replica computes layouts; only the lease holder writes them. A holder
// that stops renewing loses the lease once it expires, and another replica takes
// over on its next run.
//
// Implementations can use:
//   - NATS KV (built-in)
//   - External coordination services (Consul, etcd)
type PublisherLease interface {
	// Acquire acquires the lease for holder, or renews it if holder already has it.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout
	//   - holder: Identity of the requesting runner instance
	//
	// Returns:
	//   - bool: true if holder holds the lease after the call
	//   - error: Coordination failure (the lease state is unknown)
	Acquire(ctx context.Context, holder string) (bool, error)

	// Release gives up the lease so another replica can take over immediately.
	//
	// Returns:
	//   - error: ErrNotLeaseHolder if the lease is not held, or a coordination failure
	Release(ctx context.Context) error
}

// RunnerStatus is the liveness record a runner instance reports.
type RunnerStatus struct {
	// InstanceID identifies the runner instance.
	InstanceID string `json:"instanceId"`

	// StoreID is the store the runner computes layouts for.
	StoreID string `json:"storeId"`

	// Runs is the number of runs attempted since the runner was created.
	Runs uint64 `json:"runs"`

	// LastRunAt is when the latest successful result was generated (zero before the first run).
	LastRunAt time.Time `json:"lastRunAt"`

	// Fingerprint is the latest layout fingerprint in hex (empty before the first run).
	Fingerprint string `json:"fingerprint,omitempty"`

	// LeaseHolder reports whether this instance publishes layouts: it has a
	// publisher and either holds the lease or runs without one.
	LeaseHolder bool `json:"leaseHolder"`

	// ReportedAt is when the status was written.
	ReportedAt time.Time `json:"reportedAt"`
}
