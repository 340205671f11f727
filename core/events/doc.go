// Package events defines the simulation events emitted on the event bus.
//
// Available event types:
//   - RunStartedEvent: a run was accepted and is about to simulate
//   - RunCompletedEvent: a run finished and was post-processed
//   - TraceMissEvent: a finished run missed its trace tolerances
package events
