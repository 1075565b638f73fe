package entity

import (
	"time"
)

// Level is one of the five ordered growth tiers a user climbs.
type Level string

const (
	LevelSeed     Level = "Seed"
	LevelSeedling Level = "Seedling"
	LevelSapling  Level = "Sapling"
	LevelTree     Level = "Tree"
	LevelForest   Level = "Forest"
)

// User is the aggregate root holding the cached XP projection.
// TotalXP, Level and Streak are derived from the ledger (Actions + Swaps)
// and may be force-corrected by reconciliation.
type User struct {
	ID        string
	Email     string
	Password  string
	Name      string
	AvatarURL string
	TotalXP   int
	Level     Level
	Streak    int
	Location  GeoPoint
	Settings  Settings
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultUserName is assigned when registration omits a display name.
const DefaultUserName = "EcoWarrior"

// DefaultLocation is used until the client reports a position.
var DefaultLocation = GeoPoint{Lat: 37.7749, Lng: -122.4194}

// Settings is a flat set of boolean toggles. Every known key has its own
// default, so a partially stored map is always completed on read.
type Settings map[string]bool

var settingDefaults = map[string]bool{
	"pushNotifications":  true,
	"emailNotifications": true,
	"weeklyDigest":       false,
	"swapAlerts":         true,
	"leaderboardUpdates": false,
	"darkMode":           false,
	"compactMode":        false,
	"publicProfile":      true,
	"showOnLeaderboard":  true,
	"shareActivity":      false,
	"locationServices":   true,
	"autoDetectProducts": true,
	"showSwapPopup":      true,
}

// DefaultSettings returns a fresh copy of the default toggles.
func DefaultSettings() Settings {
	out := make(Settings, len(settingDefaults))
	for k, v := range settingDefaults {
		out[k] = v
	}
	return out
}

// IsKnownSetting reports whether key is a supported toggle.
func IsKnownSetting(key string) bool {
	_, ok := settingDefaults[key]
	return ok
}

// WithDefaults returns a copy where every missing known toggle has its default
// and unknown keys are dropped.
func (s Settings) WithDefaults() Settings {
	out := DefaultSettings()
	for k, v := range s {
		if IsKnownSetting(k) {
			out[k] = v
		}
	}
	return out
}

// Merge applies patch over s (unknown keys ignored) and returns the result.
func (s Settings) Merge(patch map[string]bool) Settings {
	out := s.WithDefaults()
	for k, v := range patch {
		if IsKnownSetting(k) {
			out[k] = v
		}
	}
	return out
}

// Enabled returns the toggle value, falling back to its default.
func (s Settings) Enabled(key string) bool {
	if v, ok := s[key]; ok {
		return v
	}
	return settingDefaults[key]
}
