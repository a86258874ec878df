package game

import (
	"math/rand/v2"
)

// Bag supplies piece kinds, either uniformly at random or as shuffled
// sets of all seven kinds
type Bag struct {
	rng    *rand.Rand
	queue  []Kind
	useBag bool
}

// NewBag creates a supply; rng nil selects a time-seeded source
func NewBag(useBag bool, rng *rand.Rand) *Bag {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Bag{
		rng:    rng,
		queue:  make([]Kind, 0, KindCount),
		useBag: useBag,
	}
}

// Next draws one kind
func (b *Bag) Next() Kind {
	if !b.useBag {
		return Kind(b.rng.IntN(KindCount))
	}
	if len(b.queue) == 0 {
		for k := range KindCount {
			b.queue = append(b.queue, Kind(k))
		}
		b.rng.Shuffle(len(b.queue), func(i, j int) {
			b.queue[i], b.queue[j] = b.queue[j], b.queue[i]
		})
	}
	k := b.queue[len(b.queue)-1]
	b.queue = b.queue[:len(b.queue)-1]
	return k
}
