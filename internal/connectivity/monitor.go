// Package connectivity tracks transitions between online and offline and
// notifies subscribers on each edge. Events are edge-triggered: a subscriber
// sees exactly one "became online" call per offline→online transition, no
// matter how many probes confirm the same state.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/opentimber/fieldsync/internal/logger"
	"github.com/opentimber/fieldsync/internal/workers"
)

// Monitor is the connectivity port. Online reports the last known state;
// Subscribe registers an edge callback and returns its cancel function.
type Monitor interface {
	Online() bool
	Subscribe(fn func(online bool)) (cancel func())
}

// Pinger is the probe dependency; satisfied by adapter.RegistryClient.
type Pinger interface {
	Ping(ctx context.Context) error
}

type subscribers struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(online bool)
	online bool
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[int]func(online bool))}
}

func (s *subscribers) get() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *subscribers) subscribe(fn func(online bool)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// set updates the state and, on an edge, invokes every subscriber outside
// the lock.
func (s *subscribers) set(online bool) {
	s.mu.Lock()
	if s.online == online {
		s.mu.Unlock()
		return
	}
	s.online = online

	fns := make([]func(online bool), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// ProbeMonitor determines connectivity by probing the registry health
// endpoint on a scheduler tick. The monitor starts offline; the first
// successful probe emits the online edge.
type ProbeMonitor struct {
	pinger Pinger
	logger *logger.Logger
	state  *subscribers
	stop   func()
}

func NewProbeMonitor(pinger Pinger, log *logger.Logger) *ProbeMonitor {
	return &ProbeMonitor{
		pinger: pinger,
		logger: log,
		state:  newSubscribers(),
	}
}

// Init starts periodic probing on the given scheduler. Probing starts only
// here, never at construction.
func (m *ProbeMonitor) Init(sched workers.Scheduler, interval time.Duration) {
	m.stop = sched.Every(interval, m.Check)
}

// Dispose halts periodic probing. Safe to call before Init.
func (m *ProbeMonitor) Dispose() {
	if m.stop != nil {
		m.stop()
	}
}

// Check runs one probe immediately and updates the state. Exposed so a
// manual "sync now" can refresh connectivity before draining.
func (m *ProbeMonitor) Check(ctx context.Context) {
	err := m.pinger.Ping(ctx)
	online := err == nil

	if !online {
		m.logger.Debug().Err(err).Str("func", "ProbeMonitor.Check").
			Msg("registry unreachable")
	}

	m.state.set(online)
}

func (m *ProbeMonitor) Online() bool {
	return m.state.get()
}

func (m *ProbeMonitor) Subscribe(fn func(online bool)) (cancel func()) {
	return m.state.subscribe(fn)
}

// ManualMonitor is the in-memory Monitor used in tests and embedded
// environments that receive connectivity signals from the host platform.
type ManualMonitor struct {
	state *subscribers
}

func NewManualMonitor(online bool) *ManualMonitor {
	s := newSubscribers()
	s.online = online
	return &ManualMonitor{state: s}
}

// SetOnline feeds a host connectivity signal into the monitor. Repeated
// signals with the same value emit nothing.
func (m *ManualMonitor) SetOnline(online bool) {
	m.state.set(online)
}

func (m *ManualMonitor) Online() bool {
	return m.state.get()
}

func (m *ManualMonitor) Subscribe(fn func(online bool)) (cancel func()) {
	return m.state.subscribe(fn)
}
