// Package election provides the NATS KV publisher lease.
//
// Several runner replicas may compute layouts for the same store. The lease
// makes exactly one of them publish: the replica whose Acquire succeeds writes
// layouts, the others compute and serve results locally.
//
// # Lease Lifecycle
//
//  1. Acquire: atomic KV Create of the lease key
//  2. Renew: Acquire again while holding; a KV Update guarded by the last revision
//  3. Release: KV Delete on shutdown for immediate takeover
//  4. Expiry: a crashed holder stops renewing and the bucket TTL removes the key
//
// The bucket TTL must exceed the renewal cadence (the runner interval), otherwise
// the lease expires between renewals. Three intervals is a safe default.
//
// # Usage
//
//	kv, _ := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
//	    Bucket: "slotwise-leases",
//	    TTL:    45 * time.Second,
//	})
//	lease := election.NewKVLease(kv, "store-001")
//
//	held, err := lease.Acquire(ctx, "replica-a")
//	if err != nil {
//	    return err
//	}
//	if held {
//	    // publish
//	}
//	defer lease.Release(context.Background())
//
// A holder restarted under the same identity reclaims its own unexpired lease
// instead of waiting for the TTL.
package election
