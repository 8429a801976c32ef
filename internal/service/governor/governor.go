// Package governor bounds and deduplicates tool invocations within a conversation turn.
package governor

import (
	"sync"
)

const DefaultMaxCalls = 5

type State int

const (
	Idle State = iota
	Counting
	Blocked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Counting:
		return "counting"
	case Blocked:
		return "blocked"
	}
	return "unknown"
}

// Governor keeps one ledger per conversation thread. Ledgers live in memory only.
type Governor struct {
	maxCalls int

	mu      sync.Mutex
	threads map[string]*ledger
}

// ledger holds per-tool call counts and the results of successful calls keyed by canonical args.
type ledger struct {
	mu     sync.Mutex
	counts map[string]int
	cache  map[string]map[string]string
}

func newLedger() *ledger {
	return &ledger{
		counts: make(map[string]int),
		cache:  make(map[string]map[string]string),
	}
}

func New(maxCalls int) *Governor {
	if maxCalls <= 0 {
		maxCalls = DefaultMaxCalls
	}
	return &Governor{
		maxCalls: maxCalls,
		threads:  make(map[string]*ledger),
	}
}

func (g *Governor) MaxCalls() int {
	return g.maxCalls
}

func (g *Governor) ledger(thread string) *ledger {
	g.mu.Lock()
	defer g.mu.Unlock()

	l, ok := g.threads[thread]
	if !ok {
		l = newLedger()
		g.threads[thread] = l
	}
	return l
}

// Reset discards the ledger of thread, dropping its counts and cached results. Calls already in
// flight finish against the discarded ledger. Owners of a thread reset it when the turn or
// session ends, otherwise the ledger stays in memory.
func (g *Governor) Reset(thread string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.threads, thread)
}

// Threads reports how many threads currently hold a ledger.
func (g *Governor) Threads() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.threads)
}

// Count returns how many invocations of tool have been admitted for thread since the last Reset.
func (g *Governor) Count(thread, tool string) int {
	g.mu.Lock()
	l, ok := g.threads[thread]
	g.mu.Unlock()
	if !ok {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[tool]
}

func (g *Governor) State(thread, tool string) State {
	switch n := g.Count(thread, tool); {
	case n == 0:
		return Idle
	case n < g.maxCalls:
		return Counting
	default:
		return Blocked
	}
}

// admit returns a cached result when one exists, otherwise reserves a call slot.
// ok is false when the ceiling is reached.
func (l *ledger) admit(tool, key string, maxCalls int) (cached string, hit bool, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if result, found := l.cache[tool][key]; found {
		return result, true, true
	}
	if l.counts[tool] >= maxCalls {
		return "", false, false
	}
	l.counts[tool]++
	return "", false, true
}

func (l *ledger) store(tool, key, result string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	byArgs, ok := l.cache[tool]
	if !ok {
		byArgs = make(map[string]string)
		l.cache[tool] = byArgs
	}
	if _, exists := byArgs[key]; !exists {
		byArgs[key] = result
	}
}
