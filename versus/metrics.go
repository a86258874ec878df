package versus

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/blockfall/game"
	"github.com/lixenwraith/blockfall/network"
	"github.com/lixenwraith/blockfall/status"
)

// metrics caches registry pointers so the match loop updates atomics directly
type metrics struct {
	messagesIn       *atomic.Int64
	messagesOut      *atomic.Int64
	garbageSent      *atomic.Int64
	garbageReceived  *atomic.Int64
	garbageCancelled *atomic.Int64
	piecesLocked     *atomic.Int64
	matches          *atomic.Int64
	wins             *atomic.Int64
	losses           *atomic.Int64
	active           *atomic.Bool
	matchID          *status.AtomicString
	phase            *status.AtomicString

	// Per-kind spawns and per-size clears, summed over rounds
	spawned [game.KindCount]*atomic.Int64
	clears  [game.MaxClearLines]*atomic.Int64

	// Connection traffic, as of the last round end
	framesIn  *atomic.Int64
	framesOut *atomic.Int64
	bytesIn   *atomic.Int64
	bytesOut  *atomic.Int64

	// Garbage rows sent per minute in the last round
	attackPerMinute *status.AtomicFloat
}

func newMetrics(reg *status.Registry) *metrics {
	if reg == nil {
		reg = status.NewRegistry()
	}
	m := &metrics{
		messagesIn:       reg.Ints.Get("versus.messages_in"),
		messagesOut:      reg.Ints.Get("versus.messages_out"),
		garbageSent:      reg.Ints.Get("versus.garbage_sent"),
		garbageReceived:  reg.Ints.Get("versus.garbage_received"),
		garbageCancelled: reg.Ints.Get("versus.garbage_cancelled"),
		piecesLocked:     reg.Ints.Get("versus.pieces_locked"),
		matches:          reg.Ints.Get("versus.matches"),
		wins:             reg.Ints.Get("versus.wins"),
		losses:           reg.Ints.Get("versus.losses"),
		active:           reg.Bools.Get("versus.active"),
		matchID:          reg.Strings.Get("versus.match_id"),
		phase:            reg.Strings.Get("versus.phase"),
		framesIn:         reg.Ints.Get("versus.frames_in"),
		framesOut:        reg.Ints.Get("versus.frames_out"),
		bytesIn:          reg.Ints.Get("versus.bytes_in"),
		bytesOut:         reg.Ints.Get("versus.bytes_out"),
		attackPerMinute:  reg.Floats.Get("versus.attack_per_minute"),
	}
	for k := range game.KindCount {
		m.spawned[k] = reg.Ints.Get("versus.spawned." + game.Kind(k).String())
	}
	for i := range m.clears {
		m.clears[i] = reg.Ints.Get("versus.clears." + strconv.Itoa(i+1))
	}
	return m
}

// addPieceStats folds one round's tallies into the running totals
func (m *metrics) addPieceStats(st *game.PieceStats) {
	for k, v := range m.spawned {
		v.Add(int64(st.Spawned(game.Kind(k))))
	}
	for i, v := range m.clears {
		v.Add(int64(st.Clears(i + 1)))
	}
}

func (m *metrics) storeConnStats(cs network.ConnStats) {
	m.framesIn.Store(int64(cs.FramesIn))
	m.framesOut.Store(int64(cs.FramesOut))
	m.bytesIn.Store(int64(cs.BytesIn))
	m.bytesOut.Store(int64(cs.BytesOut))
}

// attackRate converts rows sent over d into rows per minute
func attackRate(rows int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(rows) / d.Minutes()
}
