package slotwise

import "github.com/arloliu/slotwise/types"

// Sentinel errors re-exported from the types package.
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = types.ErrInvalidConfig

	// ErrEventSourceRequired is returned when NewPipeline gets a nil event source.
	ErrEventSourceRequired = types.ErrEventSourceRequired

	// ErrSlotSourceRequired is returned when NewPipeline gets a nil slot source.
	ErrSlotSourceRequired = types.ErrSlotSourceRequired

	// ErrPipelineRequired is returned when NewRunner gets a nil pipeline.
	ErrPipelineRequired = types.ErrPipelineRequired

	// ErrAlreadyStarted is returned when Start is called on a running runner.
	ErrAlreadyStarted = types.ErrAlreadyStarted

	// ErrNotStarted is returned when Stop is called on a runner that is not running.
	ErrNotStarted = types.ErrNotStarted

	// ErrEventSource wraps event source failures returned by Pipeline.Run.
	ErrEventSource = types.ErrEventSource

	// ErrSlotSource wraps slot source failures returned by Pipeline.Run.
	ErrSlotSource = types.ErrSlotSource

	// ErrPublishFailed is returned when a layout cannot be written to NATS KV.
	ErrPublishFailed = types.ErrPublishFailed

	// ErrLease wraps publisher lease failures returned by Runner.RunOnce.
	ErrLease = types.ErrLease

	// ErrNotLeaseHolder is returned when releasing a lease that is not held.
	ErrNotLeaseHolder = types.ErrNotLeaseHolder
)
