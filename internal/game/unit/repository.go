package unit

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrUnitNotFound is returned when no unit matches the given id.
var ErrUnitNotFound = errors.New("unit not found")

// Repository loads and persists units.
type Repository interface {
	Get(ctx context.Context, id string) (*Unit, error)
	Create(ctx context.Context, u *Unit) error
	// SaveAttack saves the health of both units of one attack atomically.
	// A nil unit is skipped.
	SaveAttack(ctx context.Context, attacker, defender *Unit) error
}

// MemoryRepository is a Repository held in process memory.
// All methods are safe for concurrent use.
type MemoryRepository struct {
	mu    sync.RWMutex
	units map[string]*Unit
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{units: make(map[string]*Unit)}
}

// Get returns a copy of the unit with id.
//
// Postcondition: returns an error wrapping ErrUnitNotFound if absent.
func (m *MemoryRepository) Get(_ context.Context, id string) (*Unit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %q: %w", id, ErrUnitNotFound)
	}
	return u.Clone(), nil
}

// Create stores a copy of u.
//
// Precondition: u.ID must be non-empty and not yet stored.
func (m *MemoryRepository) Create(_ context.Context, u *Unit) error {
	if u.ID == "" {
		return errors.New("unit id must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.units[u.ID]; exists {
		return fmt.Errorf("unit %q already exists", u.ID)
	}
	m.units[u.ID] = u.Clone()
	return nil
}

// SaveAttack stores the damage taken and ammunition of attacker and defender
// under one lock. Nothing else about a stored unit changes.
//
// Postcondition: returns an error wrapping ErrUnitNotFound, and changes
// neither unit, if either is not stored.
func (m *MemoryRepository) SaveAttack(_ context.Context, attacker, defender *Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range []*Unit{attacker, defender} {
		if u == nil {
			continue
		}
		if _, ok := m.units[u.ID]; !ok {
			return fmt.Errorf("unit %q: %w", u.ID, ErrUnitNotFound)
		}
	}
	for _, u := range []*Unit{attacker, defender} {
		if u == nil {
			continue
		}
		stored := m.units[u.ID]
		stored.DamageTaken = u.DamageTaken
		stored.Ammo = u.Ammo
	}
	return nil
}
