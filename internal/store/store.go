package store

import (
	"context"
	"errors"
	"time"

	"group-order-service/internal/models"
)

var (
	// ErrNotFound is returned when no session exists for the given id.
	ErrNotFound = errors.New("session not found")
	// ErrAlreadyExists is returned by Create for a duplicate id.
	ErrAlreadyExists = errors.New("session already exists")
	// ErrVersionConflict is returned by Put when the expected version does
	// not match the stored one.
	ErrVersionConflict = errors.New("session version conflict")
)

// Store is the keyed session registry. Writes are guarded by a per-session
// version counter: Put only applies when expectedVersion matches the stored
// record, so concurrent read-modify-write cycles fail with
// ErrVersionConflict instead of silently clobbering each other.
//
// The store does not interpret expiry beyond SweepExpired; callers decide
// when to evict on access.
type Store interface {
	// Create registers a new session and sets its version to 1.
	Create(ctx context.Context, session *models.GroupSession) error
	// Get returns the session for id, expired or not.
	Get(ctx context.Context, id string) (*models.GroupSession, error)
	// Put replaces the stored session if expectedVersion matches, bumping
	// the version by one.
	Put(ctx context.Context, session *models.GroupSession, expectedVersion int64) error
	// Delete removes the session. Deleting an absent id returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// List returns every stored session.
	List(ctx context.Context) ([]*models.GroupSession, error)
	// SweepExpired removes all sessions whose expiry is at or before now and
	// returns how many were evicted.
	SweepExpired(ctx context.Context, now time.Time) (int, error)
}
