package game

// EventType identifies an engine occurrence the presentation layer may react to
type EventType uint8

const (
	EventMove EventType = iota
	EventRotate
	EventSoftDrop
	EventHardDrop
	EventHold
	EventLock
	EventLineClear
	EventSpin
	EventAllClear
	EventCombo
	EventBackToBack
	EventLevelUp
	EventGarbageReceived
	EventSpawn
	EventGameOver
)

var eventNames = [...]string{
	EventMove:            "move",
	EventRotate:          "rotate",
	EventSoftDrop:        "soft_drop",
	EventHardDrop:        "hard_drop",
	EventHold:            "hold",
	EventLock:            "lock",
	EventLineClear:       "line_clear",
	EventSpin:            "spin",
	EventAllClear:        "all_clear",
	EventCombo:           "combo",
	EventBackToBack:      "back_to_back",
	EventLevelUp:         "level_up",
	EventGarbageReceived: "garbage_received",
	EventSpawn:           "spawn",
	EventGameOver:        "game_over",
}

func (t EventType) String() string {
	if int(t) < len(eventNames) {
		return eventNames[t]
	}
	return "unknown"
}

// Event is one queued engine occurrence. Lock events carry the result of
// that lock; Value carries the type-specific count (lines, combo, level, rows)
type Event struct {
	Type   EventType
	Value  int
	Result ClearResult
}
