package input

import "strings"

// Action is a discrete player command consumed by the controller
type Action uint8

const (
	ActionNone Action = iota
	ActionMoveLeft
	ActionMoveRight
	ActionSoftDrop
	ActionHardDrop
	ActionRotateCW
	ActionRotateCCW
	ActionHold
	ActionPause
	ActionForfeit
	ActionQuit
)

// actionNames maps canonical action names used in key binding config
var actionNames = map[string]Action{
	"none":       ActionNone,
	"move_left":  ActionMoveLeft,
	"move_right": ActionMoveRight,
	"soft_drop":  ActionSoftDrop,
	"hard_drop":  ActionHardDrop,
	"rotate_cw":  ActionRotateCW,
	"rotate_ccw": ActionRotateCCW,
	"hold":       ActionHold,
	"pause":      ActionPause,
	"forfeit":    ActionForfeit,
	"quit":       ActionQuit,
}

func (a Action) String() string {
	for name, v := range actionNames {
		if v == a {
			return name
		}
	}
	return "unknown"
}

// ActionByName resolves a config action name, case-insensitive
func ActionByName(name string) (Action, bool) {
	a, ok := actionNames[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// direction returns the horizontal direction of a move action, 0 otherwise
func (a Action) direction() int {
	switch a {
	case ActionMoveLeft:
		return -1
	case ActionMoveRight:
		return 1
	}
	return 0
}
