// Package heartbeat publishes runner status records to NATS KV.
//
// Each runner instance writes a small JSON document describing its progress
// (runs, latest layout fingerprint, lease ownership) at a fixed interval.
// Dashboards and operators read the bucket to see which replicas are alive and
// which one currently publishes layouts.
//
// # Key Format
//
//	status.{storeID}.{instanceID}
//
// Example: "status.store-001.replica-a"
//
// # Expiry
//
// The bucket should carry a TTL of about three publish intervals. A crashed
// instance stops refreshing its record, which then expires. A clean Stop deletes
// the record immediately.
//
// # Usage
//
//	publisher := heartbeat.New(kv, "store-001", "replica-a", 5*time.Second, runner.Status, logger)
//	if err := publisher.Start(ctx); err != nil {
//	    return err
//	}
//	defer publisher.Stop()
package heartbeat
