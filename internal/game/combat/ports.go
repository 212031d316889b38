package combat

//go:generate mockgen -destination=mock/mock_ports.go -package=mockcombat -source=ports.go

import (
	"context"

	"github.com/cory-johannsen/momserver/internal/game/unit"
)

// Notifier relays breakdowns to the participants of a combat. Delivery is
// best effort; a failure never undoes damage.
type Notifier interface {
	Notify(ctx context.Context, b Breakdown) error
}

// HealthStore persists the health and ammunition of units.
type HealthStore interface {
	// SaveAttack stores the attacker and defender of one resolution together:
	// either both are written or neither is. A nil unit is skipped.
	SaveAttack(ctx context.Context, attacker, defender *unit.Unit) error
}
