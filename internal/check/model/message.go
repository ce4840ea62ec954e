package model

import (
	"structcheck/internal/check/kind"
	"structcheck/internal/check/verdict"
)

// CheckMessage is the Kafka payload of an asynchronous check.
type CheckMessage struct {
	CheckID    string    `json:"check_id"`
	Kind       kind.Kind `json:"kind"`
	Login      string    `json:"login,omitempty"`
	SourceKey  string    `json:"source_key"`
	SourceHash string    `json:"source_hash"`
	CreatedAt  int64     `json:"created_at"`
}

// StatusEventType classifies status events.
type StatusEventType string

const StatusEventFinal StatusEventType = "final"

// StatusEvent is published when a check reaches a terminal status.
type StatusEvent struct {
	Type      StatusEventType `json:"type"`
	Verdict   verdict.Verdict `json:"verdict"`
	CreatedAt int64           `json:"created_at"`
}
