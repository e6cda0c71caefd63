package chat

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Responder picks the assistant's reply to a revision request.
type Responder interface {
	Reply(request string) string
}

// RandomResponder picks uniformly from a fixed set of canned replies.
// Two responders built with the same seed produce the same sequence.
type RandomResponder struct {
	mu      sync.Mutex
	rng     *rand.Rand
	replies []string
}

// NewRandomResponder seeds the generator with seed; seed 0 means time-seeded.
func NewRandomResponder(replies []string, seed uint64) *RandomResponder {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomResponder{
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		replies: append([]string(nil), replies...),
	}
}

func (r *RandomResponder) Reply(string) string {
	if len(r.replies) == 0 {
		return ""
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replies[r.rng.IntN(len(r.replies))]
}

// FixedResponder always answers with the same text.
type FixedResponder string

func (f FixedResponder) Reply(string) string { return string(f) }
