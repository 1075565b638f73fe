// Package xp holds the scoring rules shared by the ledger commands and the
// reconciler. A Table is immutable once built; callers receive copies.
package xp

import (
	"sort"

	"github.com/oksasatya/greenloop/internal/domain/entity"
)

const (
	// FallbackActionXP is credited for action types missing from the table.
	FallbackActionXP = 5
	// DefaultSwapXP is credited for a swap without an explicit xp value.
	DefaultSwapXP = 100
)

// Tier is an inclusive lower bound on total XP for a level.
type Tier struct {
	Level entity.Level `json:"level"`
	MinXP int          `json:"minXp"`
}

// Table maps action types to points and XP totals to levels.
type Table struct {
	points   map[entity.ActionType]int
	fallback int
	swapXP   int
	tiers    []Tier
}

// NewTable copies its inputs; tiers are sorted ascending by MinXP.
func NewTable(points map[entity.ActionType]int, fallback, swapXP int, tiers []Tier) Table {
	p := make(map[entity.ActionType]int, len(points))
	for k, v := range points {
		p[k] = v
	}
	ts := append([]Tier(nil), tiers...)
	sort.Slice(ts, func(i, j int) bool { return ts[i].MinXP < ts[j].MinXP })
	return Table{points: p, fallback: fallback, swapXP: swapXP, tiers: ts}
}

// Default is the production table.
var Default = NewTable(
	map[entity.ActionType]int{
		entity.ActionPlant:   50,
		entity.ActionSwap:    100,
		entity.ActionWalk:    30,
		entity.ActionRefill:  10,
		entity.ActionCompost: 20,
		entity.ActionCleanup: 40,
		entity.ActionObserve: 15,
	},
	FallbackActionXP,
	DefaultSwapXP,
	[]Tier{
		{Level: entity.LevelSeed, MinXP: 0},
		{Level: entity.LevelSeedling, MinXP: 100},
		{Level: entity.LevelSapling, MinXP: 500},
		{Level: entity.LevelTree, MinXP: 2000},
		{Level: entity.LevelForest, MinXP: 5000},
	},
)

// ActionPoints returns the XP for an action type.
func (t Table) ActionPoints(at entity.ActionType) int {
	if v, ok := t.points[at]; ok {
		return v
	}
	return t.fallback
}

// SwapPoints returns override when set, otherwise the default swap XP.
func (t Table) SwapPoints(override *int) int {
	if override != nil {
		return *override
	}
	return t.swapXP
}

// LevelFor returns the highest tier whose lower bound is <= total.
func (t Table) LevelFor(total int) entity.Level {
	if len(t.tiers) == 0 {
		return entity.LevelSeed
	}
	lvl := t.tiers[0].Level
	for _, tier := range t.tiers {
		if total >= tier.MinXP {
			lvl = tier.Level
		}
	}
	return lvl
}

// Rank returns the zero-based index of lvl in the tier order, or -1.
func (t Table) Rank(lvl entity.Level) int {
	for i, tier := range t.tiers {
		if tier.Level == lvl {
			return i
		}
	}
	return -1
}

// Snapshot is the public form of a Table.
type Snapshot struct {
	Actions  map[entity.ActionType]int `json:"actions"`
	Fallback int                       `json:"fallback"`
	SwapXP   int                       `json:"swapXp"`
	Levels   []Tier                    `json:"levels"`
}

// Snapshot returns a copy safe to hand to callers.
func (t Table) Snapshot() Snapshot {
	actions := make(map[entity.ActionType]int, len(t.points))
	for k, v := range t.points {
		actions[k] = v
	}
	return Snapshot{
		Actions:  actions,
		Fallback: t.fallback,
		SwapXP:   t.swapXP,
		Levels:   append([]Tier(nil), t.tiers...),
	}
}

// NextTier returns the tier above lvl; ok is false at the top tier or for an
// unknown level.
func (t Table) NextTier(lvl entity.Level) (Tier, bool) {
	r := t.Rank(lvl)
	if r < 0 || r+1 >= len(t.tiers) {
		return Tier{}, false
	}
	return t.tiers[r+1], true
}
