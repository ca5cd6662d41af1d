package testutil

import (
	"fmt"
	"sync"
)

// FixedFlows returns predetermined flow tokens in order. It panics when
// the tokens run out, which catches tests that create more flows than
// they expect.
type FixedFlows struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedFlows builds a generator that yields the given tokens in
// order.
func NewFixedFlows(tokens ...string) *FixedFlows {
	return &FixedFlows{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedFlows) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.tokens) {
		panic("testutil: fixed flow tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}

// SeqFlows generates "prefix-1", "prefix-2", ... without ever running
// out. Useful when a test does not care about the exact token.
type SeqFlows struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSeqFlows builds a sequential generator with the given prefix.
func NewSeqFlows(prefix string) *SeqFlows {
	return &SeqFlows{prefix: prefix}
}

// Generate returns the next sequential token.
func (g *SeqFlows) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
