// Package link routes viewport changes between linked panels.
//
// The broker knows panels only by identifier. A panel registers a handler
// that applies an incoming change through its silent setter; the broker
// never touches panel state directly.
package link

import (
	"github.com/ChrisMcGann/SpecView/pkg/viewport"
)

// ID identifies a registered panel.
type ID string

// Rule describes how a change on one side of a link maps to the other side.
type Rule int

const (
	// Mirror shares the horizontal axis as-is and the vertical zoom, with the
	// vertical scroll sign inverted. Used between a spectrum and its mirror.
	Mirror Rule = iota
	// Horizontal shares only the horizontal axis. Used towards error panels.
	Horizontal
)

func (r Rule) String() string {
	switch r {
	case Mirror:
		return "mirror"
	case Horizontal:
		return "horizontal"
	default:
		return "unknown"
	}
}

// Map translates a change for delivery across a link with this rule.
func (r Rule) Map(c viewport.Change) viewport.Change {
	out := viewport.Change{X: c.X}
	if r == Mirror && c.Y != nil {
		out.Y = &viewport.AxisState{Zoom: c.Y.Zoom, Scroll: -c.Y.Scroll}
	}
	return out
}

// Handler applies a change received from a peer without re-broadcasting.
type Handler func(viewport.Change)

// Target is one outgoing edge of the link table.
type Target struct {
	ID   ID
	Rule Rule
}

// Broker holds the link table and fans out changes. It is not safe for
// concurrent use; callers serialise access per view.
type Broker struct {
	handlers   map[ID]Handler
	links      map[ID][]Target
	publishing bool
	published  int
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{
		handlers: make(map[ID]Handler),
		links:    make(map[ID][]Target),
	}
}

// Register installs the handler for id. The returned cancel function removes
// the handler and every link involving id.
func (b *Broker) Register(id ID, h Handler) (cancel func()) {
	b.handlers[id] = h
	return func() { b.remove(id) }
}

func (b *Broker) remove(id ID) {
	delete(b.handlers, id)
	for _, t := range b.links[id] {
		b.links[t.ID] = without(b.links[t.ID], id)
	}
	delete(b.links, id)
}

// Link connects a and c in both directions under rule, replacing any
// existing link between them.
func (b *Broker) Link(a, c ID, rule Rule) {
	if a == c {
		return
	}
	b.Unlink(a, c)
	b.links[a] = append(b.links[a], Target{ID: c, Rule: rule})
	b.links[c] = append(b.links[c], Target{ID: a, Rule: rule})
}

// Unlink removes the link between a and c, if any.
func (b *Broker) Unlink(a, c ID) {
	b.links[a] = without(b.links[a], c)
	b.links[c] = without(b.links[c], a)
}

func without(ts []Target, id ID) []Target {
	out := ts[:0]
	for _, t := range ts {
		if t.ID != id {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Peers returns the outgoing links of id.
func (b *Broker) Peers(id ID) []Target {
	return append([]Target(nil), b.links[id]...)
}

// Registered reports whether id has a live handler.
func (b *Broker) Registered(id ID) bool {
	_, ok := b.handlers[id]
	return ok
}

// Publish delivers a user-driven change from origin to each linked peer and
// returns the peers that were updated, in link order. Calls made while a
// publish is in flight are dropped, so a peer that re-broadcasts from its
// handler cannot start a loop.
func (b *Broker) Publish(origin ID, c viewport.Change) []ID {
	if b.publishing {
		return nil
	}
	b.publishing = true
	defer func() { b.publishing = false }()
	b.published++

	var updated []ID
	for _, t := range b.links[origin] {
		h, ok := b.handlers[t.ID]
		if !ok {
			continue
		}
		h(t.Rule.Map(c))
		updated = append(updated, t.ID)
	}
	return updated
}

// Published returns how many broadcasts have been started.
func (b *Broker) Published() int {
	return b.published
}
