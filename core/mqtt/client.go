// Package mqtt defines how finished runs are announced on a message broker.
package mqtt

import (
	"context"
	"strings"
)

// Kind identifies what a published message carries.
type Kind string

const (
	KindSummary   Kind = "summary"
	KindTraceMiss Kind = "trace_miss"
	KindStatus    Kind = "status"
)

// Envelope wraps every payload published for a run.
type Envelope struct {
	MessageID string `json:"message_id"`
	RunID     string `json:"run_id"`
	Kind      Kind   `json:"kind"`
	Vehicle   string `json:"vehicle"`
	Timestamp int64  `json:"timestamp"`
	Payload   any    `json:"payload"`
}

// Publisher publishes run results to a broker.
type Publisher interface {
	// Publish sends payload for the given run and returns the message ID.
	Publish(ctx context.Context, kind Kind, runID, vehicle string, payload any) (messageID string, err error)
	Close()
}

// Topic builds "<prefix>/<vehicle>/<kind>". Characters that MQTT reserves in
// topic levels are replaced in the vehicle name.
func Topic(prefix, vehicle string, kind Kind) string {
	if vehicle == "" {
		vehicle = "unknown"
	}
	clean := strings.NewReplacer("/", "_", "+", "_", "#", "_", " ", "_").Replace(vehicle)
	return prefix + "/" + clean + "/" + string(kind)
}
