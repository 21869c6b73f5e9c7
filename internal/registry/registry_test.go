package registry_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/registry"
)

func TestJoin_IsIdempotentByConnection(t *testing.T) {
	r := registry.New()
	ana := domain.Presence{ID: "1", Name: "Ana", ConnID: "c1"}

	r.Join(registry.NamedChat, "sala-a", ana)
	r.Join(registry.NamedChat, "sala-a", ana)
	roster := r.Join(registry.NamedChat, "sala-a", domain.Presence{ID: "2", Name: "Ben", ConnID: "c2"})

	require.Len(t, roster, 2)
	assert.Equal(t, domain.FlexibleID("1"), roster[0].ID)
	assert.Equal(t, domain.FlexibleID("2"), roster[1].ID)
}

func TestJoin_SameConnectionNewIDUpdatesInPlace(t *testing.T) {
	r := registry.New()

	r.Join(registry.General, registry.GeneralRoom, domain.Presence{ID: "x1", Name: "Ana", ConnID: "c1"})
	roster := r.Join(registry.General, registry.GeneralRoom, domain.Presence{ID: "x2", Name: "Ana B", ConnID: "c1"})

	require.Len(t, roster, 1)
	assert.Equal(t, domain.FlexibleID("x2"), roster[0].ID)
	assert.Equal(t, "Ana B", roster[0].Name)
	assert.Equal(t, "c1", roster[0].ConnID)
}

func TestJoin_OtherConnectionWithSameIDIsRecorded(t *testing.T) {
	r := registry.New()

	r.Join(registry.General, registry.GeneralRoom, domain.Presence{ID: "7", Name: "Ana", ConnID: "tab-1"})
	roster := r.Join(registry.General, registry.GeneralRoom, domain.Presence{ID: "7", Name: "Ana", ConnID: "tab-2"})
	require.Len(t, roster, 2)

	r.PruneConnection("tab-1")
	members := r.Members(registry.General, registry.GeneralRoom)
	require.Len(t, members, 1, "the user stays listed while tab-2 is connected")
	assert.Equal(t, "tab-2", members[0].ConnID)
}

func TestJoin_NamespacesAreIndependent(t *testing.T) {
	r := registry.New()
	p := domain.Presence{ID: "1", Name: "Ana"}

	r.Join(registry.General, registry.GeneralRoom, p)
	r.Join(registry.PrivateEvent, "x", p)

	assert.Len(t, r.Members(registry.General, registry.GeneralRoom), 1)
	assert.Empty(t, r.Members(registry.NamedChat, "x"))
	assert.Len(t, r.Members(registry.PrivateEvent, "x"), 1)
}

func TestJoin_ReturnsCopy(t *testing.T) {
	r := registry.New()
	roster := r.Join(registry.General, registry.GeneralRoom, domain.Presence{ID: "1", Name: "Ana"})
	roster[0].Name = "changed"

	assert.Equal(t, "Ana", r.Members(registry.General, registry.GeneralRoom)[0].Name)
}

func TestAppendEvent_DedupesAndCreatesRoom(t *testing.T) {
	r := registry.New()

	r.AppendEvent("priv", "kickoff")
	events := r.AppendEvent("priv", "kickoff")
	assert.Equal(t, []string{"kickoff"}, events)

	events = r.AppendEvent("priv", "retro")
	assert.Equal(t, []string{"kickoff", "retro"}, events)
}

func TestRemoveEvent(t *testing.T) {
	r := registry.New()

	_, ok := r.RemoveEvent("nope", "x")
	assert.False(t, ok, "unknown rooms are left alone")
	assert.Empty(t, r.Events("nope"))

	r.AppendEvent("priv", "a")
	r.AppendEvent("priv", "b")
	events, ok := r.RemoveEvent("priv", "a")
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, events)

	events, ok = r.RemoveEvent("priv", "missing")
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, events)
}

func TestPruneConnection(t *testing.T) {
	r := registry.New()
	r.Join(registry.General, registry.GeneralRoom, domain.Presence{ID: "1", ConnID: "c1"})
	r.Join(registry.General, registry.GeneralRoom, domain.Presence{ID: "2", ConnID: "c2"})
	r.Join(registry.NamedChat, "sala", domain.Presence{ID: "1", ConnID: "c1"})

	changes := r.PruneConnection("c1")

	assert.Len(t, changes, 2)
	assert.Len(t, r.Members(registry.General, registry.GeneralRoom), 1)
	assert.Empty(t, r.Members(registry.NamedChat, "sala"))
	assert.Empty(t, r.PruneConnection("c1"))
}

func TestConcurrentJoins(t *testing.T) {
	r := registry.New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := domain.FlexibleID(fmt.Sprint(i % 10))
			r.Join(registry.NamedChat, "busy", domain.Presence{ID: id})
			r.AppendEvent("busy", fmt.Sprint(i%5))
		}(i)
	}
	wg.Wait()

	assert.Len(t, r.Members(registry.NamedChat, "busy"), 10)
	assert.Len(t, r.Events("busy"), 5)
}
