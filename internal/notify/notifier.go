// Package notify holds the per-session messages shown above the page:
// toasts that dismiss themselves after a fixed delay, and alerts that are
// shown once on the next render.
package notify

import (
	"sync"
	"time"
)

const DefaultDelay = 2 * time.Second

type Kind string

const (
	KindToast Kind = "toast"
	KindAlert Kind = "alert"
)

type Notice struct {
	ID      uint64
	Kind    Kind
	Message string
}

type Notifier struct {
	delay time.Duration

	mu      sync.Mutex
	nextID  uint64
	notices map[string][]Notice
	timers  map[uint64]*time.Timer
	closed  bool
}

func New(delay time.Duration) *Notifier {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Notifier{
		delay:   delay,
		notices: make(map[string][]Notice),
		timers:  make(map[uint64]*time.Timer),
	}
}

func (n *Notifier) Delay() time.Duration { return n.delay }

// Toast adds a message that disappears after the delay on its own.
func (n *Notifier) Toast(sessionID, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	id := n.push(sessionID, KindToast, msg)
	n.timers[id] = time.AfterFunc(n.delay, func() {
		n.dismiss(sessionID, id)
	})
}

// Alert adds a message that stays until the next Active call reads it.
func (n *Notifier) Alert(sessionID, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.push(sessionID, KindAlert, msg)
}

// Active returns the live toasts and drains pending alerts.
func (n *Notifier) Active(sessionID string) []Notice {
	n.mu.Lock()
	defer n.mu.Unlock()

	list := n.notices[sessionID]
	if len(list) == 0 {
		return nil
	}

	out := make([]Notice, len(list))
	copy(out, list)

	kept := list[:0]
	for _, nt := range list {
		if nt.Kind == KindToast {
			kept = append(kept, nt)
		}
	}
	n.store(sessionID, kept)
	return out
}

// Close stops pending timers. Later calls to Toast/Alert are ignored.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.closed = true
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.notices = make(map[string][]Notice)
}

func (n *Notifier) push(sessionID string, kind Kind, msg string) uint64 {
	n.nextID++
	n.notices[sessionID] = append(n.notices[sessionID], Notice{ID: n.nextID, Kind: kind, Message: msg})
	return n.nextID
}

// dismissing twice is a no-op
func (n *Notifier) dismiss(sessionID string, id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.timers, id)
	list := n.notices[sessionID]
	for i, nt := range list {
		if nt.ID == id {
			n.store(sessionID, append(list[:i:i], list[i+1:]...))
			return
		}
	}
}

func (n *Notifier) store(sessionID string, list []Notice) {
	if len(list) == 0 {
		delete(n.notices, sessionID)
		return
	}
	n.notices[sessionID] = list
}
