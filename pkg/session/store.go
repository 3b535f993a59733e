// Package session provides per-conversation state persistence. A session
// tracks the conversation flow, collected screening answers, detected red
// flags, and the full message history. Two backends exist: Redis for
// deployments and an in-memory store for development and tests.
package session

import (
	"context"
	"errors"

	"github.com/pukaarhealth/pukaar/internal/redflag"
)

// Common errors for store operations.
var (
	// ErrSessionNotFound is returned when a session doesn't exist or expired.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("session store is closed")
)

// Store abstracts session persistence.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create initializes a new session in the initial flow and returns it.
	Create(ctx context.Context) (*Session, error)

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if the session doesn't exist.
	Get(ctx context.Context, id string) (*Session, error)

	// Update applies mutate to the stored session under a read-modify-write
	// and persists the result. LastActive is bumped on every update.
	Update(ctx context.Context, id string, mutate func(*Session)) (*Session, error)

	// AppendMessage adds one message to the conversation history.
	AppendMessage(ctx context.Context, id string, msg Message) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// Ping checks backend liveness.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// SetFlow switches a session to a new flow and resets its step counter.
func SetFlow(ctx context.Context, store Store, id string, ft FlowType) (*Session, error) {
	if !ValidFlowType(ft) {
		return nil, errors.New("invalid flow type: " + string(ft))
	}
	return store.Update(ctx, id, func(s *Session) {
		s.FlowType = ft
		s.CurrentStep = 0
	})
}

// AdvanceStep increments the step counter within the current flow.
func AdvanceStep(ctx context.Context, store Store, id string) (*Session, error) {
	return store.Update(ctx, id, func(s *Session) {
		s.CurrentStep++
	})
}

// SetScreeningData records the screening state for one condition.
func SetScreeningData(ctx context.Context, store Store, id, condition string, rec ScreeningRecord) (*Session, error) {
	return store.Update(ctx, id, func(s *Session) {
		if s.ScreeningData == nil {
			s.ScreeningData = make(map[string]ScreeningRecord)
		}
		s.ScreeningData[condition] = rec
	})
}

// AddRedFlags appends detected red flags to the session.
func AddRedFlags(ctx context.Context, store Store, id string, flags ...redflag.Flag) (*Session, error) {
	return store.Update(ctx, id, func(s *Session) {
		s.RedFlags = append(s.RedFlags, flags...)
	})
}
