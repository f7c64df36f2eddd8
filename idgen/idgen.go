// Package idgen provides the ID generators used to name operator calls.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() string
}

// New returns a sequential generator whose first emitted ID is "1".
func New() Generator {
	return &sequentialGenerator{}
}

// NewWithPrefix returns a sequential generator whose IDs carry a prefix, such
// as "op-1".
func NewWithPrefix(prefix string) Generator {
	return &sequentialGenerator{prefix: prefix}
}

type sequentialGenerator struct {
	prefix string
	next   uint64
}

func (g *sequentialGenerator) Generate() string {
	n := atomic.AddUint64(&g.next, 1)
	return g.prefix + strconv.FormatUint(n, 10)
}

// NewGlobal returns a generator of globally unique IDs, suitable when traces
// from several processes are merged.
func NewGlobal() Generator {
	return globalGenerator{}
}

type globalGenerator struct{}

func (globalGenerator) Generate() string {
	return xid.New().String()
}
