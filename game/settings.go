package game

import (
	"time"
)

// MaxNextCount is the depth of the lookahead queue the engine keeps filled
const MaxNextCount = 6

// UnlimitedResets disables the lock delay move-reset cap
const UnlimitedResets = -1

// Mode selects the objective of a game session
type Mode uint8

const (
	ModeMarathon Mode = iota
	ModeSprint
	ModeUltra
	ModeEndless
	ModeVersus
)

var modeNames = map[Mode]string{
	ModeMarathon: "marathon",
	ModeSprint:   "sprint",
	ModeUltra:    "ultra",
	ModeEndless:  "endless",
	ModeVersus:   "versus",
}

func (m Mode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return "unknown"
}

// ParseMode resolves a mode name, reporting false for unknown names
func ParseMode(s string) (Mode, bool) {
	for m, name := range modeNames {
		if name == s {
			return m, true
		}
	}
	return ModeMarathon, false
}

// levelsAdvance reports whether clearing lines raises the level
func (m Mode) levelsAdvance() bool {
	return m == ModeMarathon || m == ModeEndless
}

// Settings configures one game session
type Settings struct {
	Level         int  `toml:"level"`
	MarathonGoal  int  `toml:"marathon_goal"`
	SprintGoal    int  `toml:"sprint_goal"`
	UltraTime     int  `toml:"ultra_time"` // seconds
	LevelCap      int  `toml:"level_cap"`  // 0 = uncapped
	Ghost         bool `toml:"ghost"`
	LineClearAnim bool `toml:"line_clear_anim"`
	NextCount     int  `toml:"next_count"`
	BagRandomizer bool `toml:"bag_randomizer"`
	SRS           bool `toml:"srs"`
	HoldEnabled   bool `toml:"hold_enabled"`
	LockDelayMs   int  `toml:"lock_delay_ms"`
	MoveReset     int  `toml:"move_reset"` // UnlimitedResets = no cap
	GarbageRise   bool `toml:"garbage_rise"`
}

// DefaultSettings returns the standard rule set
func DefaultSettings() Settings {
	return Settings{
		Level:         1,
		MarathonGoal:  150,
		SprintGoal:    40,
		UltraTime:     120,
		LevelCap:      15,
		Ghost:         true,
		LineClearAnim: true,
		NextCount:     MaxNextCount,
		BagRandomizer: true,
		SRS:           true,
		HoldEnabled:   true,
		LockDelayMs:   500,
		MoveReset:     15,
		GarbageRise:   true,
	}
}

// LockDelay returns the configured lock delay duration
func (s Settings) LockDelay() time.Duration {
	return time.Duration(s.LockDelayMs) * time.Millisecond
}

// VersusSettings is the host-authoritative rule subset sent to the joiner
type VersusSettings struct {
	Level         int  `json:"level" toml:"level"`
	Ghost         bool `json:"ghost" toml:"ghost"`
	LineClearAnim bool `json:"line_clear_anim" toml:"line_clear_anim"`
	NextCount     int  `json:"next_count" toml:"next_count"`
	BagRandomizer bool `json:"bag_randomizer" toml:"bag_randomizer"`
	SRS           bool `json:"srs" toml:"srs"`
	HoldEnabled   bool `json:"hold_enabled" toml:"hold_enabled"`
	LockDelayMs   int  `json:"lock_delay_ms" toml:"lock_delay_ms"`
	MoveReset     int  `json:"move_reset" toml:"move_reset"`
}

// DefaultVersusSettings returns the lobby defaults
func DefaultVersusSettings() VersusSettings {
	d := DefaultSettings()
	return VersusSettings{
		Level:         d.Level,
		Ghost:         d.Ghost,
		LineClearAnim: d.LineClearAnim,
		NextCount:     d.NextCount,
		BagRandomizer: d.BagRandomizer,
		SRS:           d.SRS,
		HoldEnabled:   d.HoldEnabled,
		LockDelayMs:   d.LockDelayMs,
		MoveReset:     d.MoveReset,
	}
}

// ToSettings expands lobby settings into a session rule set; the level is
// pinned at the lobby level and there are no goals
func (v VersusSettings) ToSettings() Settings {
	return Settings{
		Level:         v.Level,
		LevelCap:      v.Level,
		Ghost:         v.Ghost,
		LineClearAnim: v.LineClearAnim,
		NextCount:     v.NextCount,
		BagRandomizer: v.BagRandomizer,
		SRS:           v.SRS,
		HoldEnabled:   v.HoldEnabled,
		LockDelayMs:   v.LockDelayMs,
		MoveReset:     v.MoveReset,
		GarbageRise:   true,
	}
}
