// Package oracle is an in-process stand-in for the external VRF
// coordinator. It answers gateway requests with 256-bit words drawn
// from a seeded PRNG, which makes whole games reproducible in tests and
// simulations. The real oracle lives outside this repository and calls
// the same Fulfill entry point over the wire.
package oracle

import (
	"encoding/binary"
	rand "math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/hackjack/internal/cards"
	"github.com/lox/hackjack/internal/entropy"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// Oracle fulfills pending gateway requests with pseudo-random words
type Oracle struct {
	mu     sync.Mutex
	rng    *rand.Rand
	gw     *entropy.Gateway
	logger *log.Logger
}

// New creates an oracle seeded deterministically from seed. The same
// seed replays the same sequence of words.
func New(gw *entropy.Gateway, seed int64, logger *log.Logger) *Oracle {
	u := uint64(seed)
	return &Oracle{
		rng:    rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64))),
		gw:     gw,
		logger: logger.WithPrefix("oracle"),
	}
}

// Word draws the next 256-bit entropy word
func (o *Oracle) Word() cards.Word {
	o.mu.Lock()
	defer o.mu.Unlock()
	var w cards.Word
	for i := 0; i < cards.WordSize; i += 8 {
		binary.BigEndian.PutUint64(w[i:], o.rng.Uint64())
	}
	return w
}

// Pump fulfills pending requests until the gateway has none left,
// returning how many were answered. Fulfilling one request often issues
// the next (the dealer drawing out, for instance), so Pump keeps going
// until the whole chain has drained.
func (o *Oracle) Pump() (int, error) {
	fulfilled := 0
	for {
		ids := o.gw.PendingIDs()
		if len(ids) == 0 {
			return fulfilled, nil
		}
		for _, id := range ids {
			word := o.Word()
			if err := o.gw.Fulfill(id, []cards.Word{word}); err != nil {
				return fulfilled, err
			}
			o.logger.Debug("fulfilled request", "request_id", id)
			fulfilled++
		}
	}
}

// mix scrambles a seed into one of the two 64-bit PCG seeds, so nearby
// seeds don't produce correlated streams.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
