// Package registry tracks in-memory presence for the general chat, named
// chat rooms and private event rooms. It is process local and never
// persisted.
package registry

import (
	"sync"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

// Namespace separates the three kinds of in-memory rooms.
type Namespace int

const (
	General Namespace = iota
	NamedChat
	PrivateEvent
)

func (n Namespace) String() string {
	switch n {
	case General:
		return "general"
	case NamedChat:
		return "named_chat"
	case PrivateEvent:
		return "private_event"
	}
	return "unknown"
}

// GeneralRoom is the key of the single implicit general chat room.
const GeneralRoom = ""

type roomState struct {
	members []domain.Presence
	events  []string
}

// Registry is safe for concurrent use. Every mutator returns a copy of the
// resulting full state so callers can broadcast it.
type Registry struct {
	mu    sync.Mutex
	rooms map[Namespace]map[string]*roomState
}

func New() *Registry {
	return &Registry{
		rooms: map[Namespace]map[string]*roomState{
			General:      {},
			NamedChat:    {},
			PrivateEvent: {},
		},
	}
}

// room returns the state for key, creating it when create is set.
// Callers hold r.mu.
func (r *Registry) room(ns Namespace, key string, create bool) *roomState {
	byKey, ok := r.rooms[ns]
	if !ok {
		byKey = make(map[string]*roomState)
		r.rooms[ns] = byKey
	}
	st, ok := byKey[key]
	if !ok && create {
		st = &roomState{members: []domain.Presence{}, events: []string{}}
		byKey[key] = st
	}
	return st
}

// Join adds p unless the connection that sent it is already in the room,
// and returns the full roster. A repeated join from the same connection
// refreshes that entry's id and name in place. Entries without a
// connection id are matched by presence id.
func (r *Registry) Join(ns Namespace, key string, p domain.Presence) []domain.Presence {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.room(ns, key, true)
	for i := range st.members {
		if sameEntry(st.members[i], p) {
			st.members[i].ID = p.ID
			st.members[i].Name = p.Name
			return copyPresence(st.members)
		}
	}
	st.members = append(st.members, p)
	return copyPresence(st.members)
}

func sameEntry(have, p domain.Presence) bool {
	if p.ConnID != "" || have.ConnID != "" {
		return have.ConnID == p.ConnID
	}
	return have.ID == p.ID
}

// Members returns the roster, empty when the room is unknown.
func (r *Registry) Members(ns Namespace, key string) []domain.Presence {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.room(ns, key, false)
	if st == nil {
		return []domain.Presence{}
	}
	return copyPresence(st.members)
}

// Events returns the event list of a private room, empty when unknown.
func (r *Registry) Events(key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.room(PrivateEvent, key, false)
	if st == nil {
		return []string{}
	}
	return copyStrings(st.events)
}

// AppendEvent creates the private room if needed and appends text unless an
// identical string is already listed.
func (r *Registry) AppendEvent(key, text string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.room(PrivateEvent, key, true)
	for _, e := range st.events {
		if e == text {
			return copyStrings(st.events)
		}
	}
	st.events = append(st.events, text)
	return copyStrings(st.events)
}

// RemoveEvent deletes every occurrence of text. It reports false and does
// nothing when the room does not exist.
func (r *Registry) RemoveEvent(key, text string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.room(PrivateEvent, key, false)
	if st == nil {
		return nil, false
	}
	kept := st.events[:0]
	for _, e := range st.events {
		if e != text {
			kept = append(kept, e)
		}
	}
	st.events = kept
	return copyStrings(st.events), true
}

// Change describes a roster that lost members in PruneConnection.
type Change struct {
	Namespace Namespace
	Key       string
	Members   []domain.Presence
}

// PruneConnection removes every presence entry that was added by connID
// and returns the rosters that changed.
func (r *Registry) PruneConnection(connID string) []Change {
	if connID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var changes []Change
	for ns, byKey := range r.rooms {
		for key, st := range byKey {
			kept := st.members[:0]
			for _, m := range st.members {
				if m.ConnID != connID {
					kept = append(kept, m)
				}
			}
			if len(kept) == len(st.members) {
				continue
			}
			st.members = kept
			changes = append(changes, Change{Namespace: ns, Key: key, Members: copyPresence(kept)})
		}
	}
	return changes
}

func copyPresence(in []domain.Presence) []domain.Presence {
	out := make([]domain.Presence, len(in))
	copy(out, in)
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
