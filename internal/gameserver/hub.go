package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/momserver/internal/game/combat"
)

// ErrUnknownCombat is returned when a breakdown names a combat the engine does
// not track.
var ErrUnknownCombat = errors.New("unknown combat")

// subscription is one open Breakdowns stream.
type subscription struct {
	playerID string
	ch       chan combat.Breakdown
	done     chan struct{}
	once     sync.Once
}

func (s *subscription) close() { s.once.Do(func() { close(s.done) }) }

// BreakdownHub delivers breakdowns to the streams of the human participants
// of the breakdown's combat. It implements combat.Notifier.
// All methods are safe for concurrent use.
type BreakdownHub struct {
	engine  *combat.Engine
	buffer  int
	timeout time.Duration
	logger  *zap.Logger

	mu   sync.RWMutex
	subs map[string]map[*subscription]struct{}
}

var _ combat.Notifier = (*BreakdownHub)(nil)

// NewBreakdownHub creates a hub resolving recipients through engine.
//
// Precondition: engine and logger must be non-nil; buffer >= 1; timeout > 0.
func NewBreakdownHub(engine *combat.Engine, buffer int, timeout time.Duration, logger *zap.Logger) *BreakdownHub {
	return &BreakdownHub{
		engine:  engine,
		buffer:  buffer,
		timeout: timeout,
		logger:  logger,
		subs:    make(map[string]map[*subscription]struct{}),
	}
}

// Subscribe opens a delivery channel for playerID. The returned cancel
// function must be called once the caller stops reading.
//
// Postcondition: the channel is never closed; select on it together with the
// caller's own cancellation.
func (h *BreakdownHub) Subscribe(playerID string) (<-chan combat.Breakdown, func()) {
	sub := &subscription{
		playerID: playerID,
		ch:       make(chan combat.Breakdown, h.buffer),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	if h.subs[playerID] == nil {
		h.subs[playerID] = make(map[*subscription]struct{})
	}
	h.subs[playerID][sub] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug("breakdown subscriber added", zap.String("player_id", playerID))
	return sub.ch, func() {
		sub.close()
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[playerID], sub)
		if len(h.subs[playerID]) == 0 {
			delete(h.subs, playerID)
		}
	}
}

// SubscriberCount returns the number of open subscriptions for playerID.
func (h *BreakdownHub) SubscriberCount(playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[playerID])
}

// Notify sends b to every subscription of every human participant of b's
// combat. AI participants and bystanders never receive it.
//
// Postcondition: returns ErrUnknownCombat (wrapped) if the combat is not
// active, or the joined errors of the subscribers that could not take b
// within the delivery timeout. Delivery to the others is unaffected.
func (h *BreakdownHub) Notify(ctx context.Context, b combat.Breakdown) error {
	cbt, ok := h.engine.GetCombat(b.Attack.CombatID)
	if !ok {
		return fmt.Errorf("breakdown %s: %w %q", b.Attack.ID, ErrUnknownCombat, b.Attack.CombatID)
	}

	var targets []*subscription
	h.mu.RLock()
	for _, playerID := range cbt.HumanPlayerIDs() {
		for sub := range h.subs[playerID] {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	for _, sub := range targets {
		g.Go(func() error {
			if err := h.deliver(ctx, sub, b); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (h *BreakdownHub) deliver(ctx context.Context, sub *subscription, b combat.Breakdown) error {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	select {
	case sub.ch <- b:
		return nil
	case <-sub.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("delivering breakdown %s to %s: %w", b.Attack.ID, sub.playerID, ctx.Err())
	}
}
