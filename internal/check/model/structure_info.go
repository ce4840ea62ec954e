package model

import (
	"time"

	"structcheck/internal/check/kind"
)

// StructureInfo is a saved submission of one login for one kind.
type StructureInfo struct {
	ID        int64     `json:"id"`
	UserLogin string    `json:"userLogin"`
	Kind      kind.Kind `json:"structureType"`
	LastSaved time.Time `json:"lastSaved"`
	Code      string    `json:"code"`
}

// CheckRequest is the input of a check.
type CheckRequest struct {
	Kind  kind.Kind `json:"kind"`
	Code  string    `json:"code"`
	Login string    `json:"login,omitempty"`
}
