package combat_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/momserver/internal/game/combat"
)

func TestEngine_StartGetEnd(t *testing.T) {
	eng := combat.NewEngine()
	cbt, err := eng.StartCombat("loc-1", combat.Participant{PlayerID: "p1", Human: true}, combat.Participant{PlayerID: "ai", Human: false})
	require.NoError(t, err)
	assert.Equal(t, "loc-1", cbt.ID)

	got, ok := eng.GetCombat("loc-1")
	require.True(t, ok)
	assert.Same(t, cbt, got)
	assert.Equal(t, 1, eng.ActiveCount())

	_, err = eng.StartCombat("loc-1", combat.Participant{PlayerID: "p2"}, combat.Participant{PlayerID: "p3"})
	assert.Error(t, err)

	eng.EndCombat("loc-1")
	_, ok = eng.GetCombat("loc-1")
	assert.False(t, ok)
}

func TestEngine_StartCombatValidation(t *testing.T) {
	eng := combat.NewEngine()
	_, err := eng.StartCombat("", combat.Participant{PlayerID: "a"}, combat.Participant{PlayerID: "b"})
	assert.Error(t, err)
	_, err = eng.StartCombat("loc", combat.Participant{}, combat.Participant{PlayerID: "b"})
	assert.Error(t, err)
}

func TestCombat_HumanPlayerIDs_ExcludesAI(t *testing.T) {
	cbt := &combat.Combat{
		Attacking: combat.Participant{PlayerID: "human", Human: true},
		Defending: combat.Participant{PlayerID: "raiders", Human: false},
	}
	assert.Equal(t, []string{"human"}, cbt.HumanPlayerIDs())
	assert.True(t, cbt.IsParticipant("raiders"))
	assert.False(t, cbt.IsParticipant("bystander"))
	assert.False(t, cbt.IsParticipant(""))
}

func TestCombat_HumanPlayerIDs_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ids := rapid.SampledFrom([]string{"a", "b"})
		cbt := &combat.Combat{
			Attacking: combat.Participant{PlayerID: ids.Draw(rt, "attacker"), Human: rapid.Bool().Draw(rt, "attackerHuman")},
			Defending: combat.Participant{PlayerID: ids.Draw(rt, "defender"), Human: rapid.Bool().Draw(rt, "defenderHuman")},
		}
		humans := cbt.HumanPlayerIDs()
		seen := map[string]bool{}
		for _, id := range humans {
			assert.False(rt, seen[id], "duplicate %s", id)
			seen[id] = true
			isHuman := (cbt.Attacking.PlayerID == id && cbt.Attacking.Human) || (cbt.Defending.PlayerID == id && cbt.Defending.Human)
			assert.True(rt, isHuman)
		}
	})
}

func TestCombat_LockSerializesResolutions(t *testing.T) {
	eng := combat.NewEngine()
	cbt, err := eng.StartCombat("loc", combat.Participant{PlayerID: "a"}, combat.Participant{PlayerID: "b"})
	require.NoError(t, err)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cbt.Lock()
			defer cbt.Unlock()
			counter++
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, counter)
}
