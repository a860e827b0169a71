package window

import (
	"context"
	"errors"
)

var (
	// ErrStoreUnavailable wraps every failure to execute a composite operation.
	ErrStoreUnavailable = errors.New("sliding window store unavailable")

	// ErrInvalidRequest is returned before touching the store when the
	// window parameters cannot describe a window.
	ErrInvalidRequest = errors.New("invalid sliding window request")
)

// Mode selects what the composite operation decides after counting.
type Mode int

const (
	// ModeEvaluate reports count > threshold and keeps the new entry.
	ModeEvaluate Mode = iota
	// ModeEvaluateAndCleanup is ModeEvaluate, but deletes the key when over.
	ModeEvaluateAndCleanup
	// ModeCount only reports the cardinality.
	ModeCount
)

func (m Mode) String() string {
	switch m {
	case ModeEvaluate:
		return "evaluate"
	case ModeEvaluateAndCleanup:
		return "cleanup"
	case ModeCount:
		return "count"
	default:
		return "unknown"
	}
}

// Request is one composite operation against a single key.
//
// Stores must run it as one indivisible unit:
//
//	purge entries with score <= Now-WindowLength
//	insert (Member, Now)
//	expire key after ExpireSeconds
//	count = cardinality
//	ModeEvaluateAndCleanup and count > Threshold: delete key
type Request struct {
	Key           string
	Now           int64 // milliseconds
	WindowLength  int64 // milliseconds
	ExpireSeconds int64
	Threshold     int64
	Member        int64
	Mode          Mode
}

// Floor is the highest score that no longer belongs to the window.
func (r Request) Floor() int64 {
	return r.Now - r.WindowLength
}

// Exceeds applies the strict greater-than threshold rule.
func (r Request) Exceeds(count int64) bool {
	return r.Mode != ModeCount && count > r.Threshold
}

// Result is what a composite operation observed.
type Result struct {
	// Count includes the entry inserted by the operation, even when the key
	// was deleted afterwards.
	Count    int64
	Exceeded bool
}

// Store executes composite operations atomically per key.
type Store interface {
	Apply(ctx context.Context, req Request) (Result, error)
}
