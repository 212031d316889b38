package combat

import (
	"fmt"
	"sync"
)

// Participant is one side of a combat.
type Participant struct {
	PlayerID string
	// Human is false for AI-controlled players.
	Human bool
}

// Combat is one active combat between an attacking and a defending player.
// Resolutions within one combat must be serialized with Lock/Unlock.
type Combat struct {
	// ID is the combat location identifier.
	ID        string
	Attacking Participant
	Defending Participant

	mu sync.Mutex
}

// Lock acquires exclusive resolution rights on the combat.
func (c *Combat) Lock() { c.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (c *Combat) Unlock() { c.mu.Unlock() }

// Participants returns both sides, attacker first.
func (c *Combat) Participants() []Participant {
	return []Participant{c.Attacking, c.Defending}
}

// HumanPlayerIDs returns the ids of the human-controlled participants.
//
// Postcondition: never contains an AI player; has no duplicates.
func (c *Combat) HumanPlayerIDs() []string {
	var ids []string
	for _, p := range c.Participants() {
		if !p.Human || p.PlayerID == "" {
			continue
		}
		if len(ids) == 1 && ids[0] == p.PlayerID {
			continue
		}
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// IsParticipant reports whether playerID fights in this combat.
func (c *Combat) IsParticipant(playerID string) bool {
	return playerID != "" && (c.Attacking.PlayerID == playerID || c.Defending.PlayerID == playerID)
}

// Engine manages all active combats, keyed by combat location id.
// All methods are safe for concurrent use.
type Engine struct {
	mu      sync.RWMutex
	combats map[string]*Combat
}

// NewEngine creates an empty combat Engine.
//
// Postcondition: Returns a non-nil Engine ready for use.
func NewEngine() *Engine {
	return &Engine{combats: make(map[string]*Combat)}
}

// StartCombat registers a new combat at combatID.
//
// Precondition: combatID must be non-empty; both participants need a player id.
// Postcondition: Returns the new Combat or an error if combat is already active at combatID.
func (e *Engine) StartCombat(combatID string, attacking, defending Participant) (*Combat, error) {
	if combatID == "" {
		return nil, fmt.Errorf("combat id must not be empty")
	}
	if attacking.PlayerID == "" || defending.PlayerID == "" {
		return nil, fmt.Errorf("combat %q: both participants need a player id", combatID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.combats[combatID]; exists {
		return nil, fmt.Errorf("combat already active at %q", combatID)
	}
	cbt := &Combat{ID: combatID, Attacking: attacking, Defending: defending}
	e.combats[combatID] = cbt
	return cbt, nil
}

// GetCombat returns the active combat at combatID.
//
// Postcondition: Returns (combat, true) if found, or (nil, false) otherwise.
func (e *Engine) GetCombat(combatID string) (*Combat, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cbt, ok := e.combats[combatID]
	return cbt, ok
}

// EndCombat removes the combat record for combatID.
func (e *Engine) EndCombat(combatID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.combats, combatID)
}

// ActiveCount returns the number of active combats.
func (e *Engine) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.combats)
}
