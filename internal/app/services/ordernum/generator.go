// Package ordernum generates human-facing order numbers. Three
// interchangeable strategies exist; none guarantees global uniqueness under
// all failure modes, which is acceptable at this catalog's throughput.
package ordernum

import (
	"fmt"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator produces a new order number per call.
type Generator interface {
	Generate() string
}

// FromConfig selects a generator by name: uuid (default), sequential or
// timebased.
func FromConfig(kind string) Generator {
	switch strings.ToLower(kind) {
	case "sequential":
		return NewSequential()
	case "timebased":
		return NewTimeBased()
	default:
		return UUID{}
	}
}

// UUID derives the order number from the first ten hex characters of a
// random UUID.
type UUID struct{}

func (UUID) Generate() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ORD-" + strings.ToUpper(raw[:10])
}

// Sequential combines epoch seconds with a wrapping atomic counter. Numbers
// from a single process are unique for up to 100000 orders per second.
type Sequential struct {
	counter atomic.Int64
}

func NewSequential() *Sequential { return &Sequential{} }

func (s *Sequential) Generate() string {
	n := s.counter.Add(1) % 100000
	return fmt.Sprintf("ORD-%d-%05d", time.Now().Unix(), n)
}

// TimeBased combines the last six digits of the clock millis with four
// random digits. Collisions are possible and tolerated.
type TimeBased struct{}

func NewTimeBased() TimeBased { return TimeBased{} }

func (TimeBased) Generate() string {
	millis := time.Now().UnixMilli() % 1000000
	return fmt.Sprintf("ORD-%06d%04d", millis, rand.Intn(10000))
}
