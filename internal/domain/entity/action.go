package entity

import (
	"strings"
	"time"
)

// ActionType is the closed set of eco-actions a user can log.
type ActionType string

const (
	ActionPlant   ActionType = "PLANT"
	ActionSwap    ActionType = "SWAP"
	ActionWalk    ActionType = "WALK"
	ActionRefill  ActionType = "REFILL"
	ActionCompost ActionType = "COMPOST"
	ActionCleanup ActionType = "CLEANUP"
	ActionObserve ActionType = "OBSERVE"
	ActionOther   ActionType = "OTHER"
)

// ActionTypes lists every accepted action type.
var ActionTypes = []ActionType{
	ActionPlant, ActionSwap, ActionWalk, ActionRefill,
	ActionCompost, ActionCleanup, ActionObserve, ActionOther,
}

// ParseActionType normalises s and reports whether it is a known type.
func ParseActionType(s string) (ActionType, bool) {
	t := ActionType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range ActionTypes {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ActionDetails carries type-specific display hints. None of the fields are
// required and none of them influence XP.
type ActionDetails struct {
	PlantName   string `json:"plantName,omitempty"`
	PlantType   string `json:"plantType,omitempty"`
	Title       string `json:"title,omitempty"`
	ProductName string `json:"productName,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Action is an XP-bearing ledger event. XPGained is fixed when the row is
// created and is never recomputed afterwards.
type Action struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	Type      ActionType    `json:"actionType"`
	Details   ActionDetails `json:"details"`
	XPGained  int           `json:"xpGained"`
	Location  *GeoPoint     `json:"location,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}
