package registry_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/Tyrowin/gochat-relay/internal/registry"
	"github.com/Tyrowin/gochat-relay/internal/registry/registrytest"
	"github.com/stretchr/testify/require"
)

func TestMemory_Register_FirstConnectionOnly(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	tab1 := registrytest.NewConn("c1", "A")
	tab2 := registrytest.NewConn("c2", "A")

	// Given A opens a first tab
	req.True(reg.Register("A", tab1))
	// When A opens a second tab
	// Then no new online edge is reported
	req.False(reg.Register("A", tab2))

	req.True(reg.Online("A"))
	req.Len(reg.Lookup("A"), 2)
	req.Equal(2, reg.Count())
}

func TestMemory_Register_SameConnectionTwice(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	conn := registrytest.NewConn("c1", "A")

	req.True(reg.Register("A", conn))
	req.False(reg.Register("A", conn))
	req.Len(reg.Lookup("A"), 1)
}

func TestMemory_Unregister_LastConnectionOnly(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	tab1 := registrytest.NewConn("c1", "A")
	tab2 := registrytest.NewConn("c2", "A")
	reg.Register("A", tab1)
	reg.Register("A", tab2)

	req.False(reg.Unregister("A", tab1))
	req.True(reg.Online("A"))

	req.True(reg.Unregister("A", tab2))
	req.False(reg.Online("A"))
	req.Empty(reg.Lookup("A"))
	req.Zero(reg.Count())
}

func TestMemory_Unregister_IsIdempotent(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	conn := registrytest.NewConn("c1", "A")
	reg.Register("A", conn)

	req.True(reg.Unregister("A", conn))
	req.False(reg.Unregister("A", conn))
	req.False(reg.Unregister("never-registered", registrytest.NewConn("x", "never-registered")))
}

func TestMemory_Register_DoesNotEvictOtherUsers(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	reg.Register("A", registrytest.NewConn("c1", "A"))
	reg.Register("B", registrytest.NewConn("c2", "B"))

	req.Equal([]string{"A", "B"}, reg.Users())
}

func TestMemory_Publish_PrivateChannel(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	a := registrytest.NewConn("c1", "A")
	b1 := registrytest.NewConn("c2", "B")
	b2 := registrytest.NewConn("c3", "B")
	reg.Register("A", a)
	reg.Register("B", b1)
	reg.Register("B", b2)

	// When a frame is published on B's private channel
	n := reg.Publish("B", []byte("hello"))

	// Then every tab of B gets it and A gets nothing
	req.Equal(2, n)
	req.Len(b1.Received(), 1)
	req.Len(b2.Received(), 1)
	req.Empty(a.Received())
}

func TestMemory_Publish_UnknownChannel(t *testing.T) {
	reg := registry.NewMemory()
	require.Zero(t, reg.Publish("nobody", []byte("x")))
}

func TestMemory_Publish_ClosedConnectionIsContained(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	conn := registrytest.NewConn("c1", "A")
	reg.Register("A", conn)
	conn.Close()

	req.NotPanics(func() {
		req.Zero(reg.Publish("A", []byte("x")))
	})
}

func TestMemory_JoinLeave(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	a := registrytest.NewConn("c1", "A")
	b := registrytest.NewConn("c2", "B")
	reg.Register("A", a)
	reg.Register("B", b)

	reg.Join(a, "call:42")
	reg.Join(b, "call:42")
	req.Equal(2, reg.Publish("call:42", []byte("x")))

	reg.Leave(b, "call:42")
	req.Equal(1, reg.Publish("call:42", []byte("y")))

	// Unregistering drops every channel the connection joined
	reg.Unregister("A", a)
	req.Zero(reg.Publish("call:42", []byte("z")))
}

func TestMemory_Join_UnregisteredConnectionIgnored(t *testing.T) {
	reg := registry.NewMemory()
	ghost := registrytest.NewConn("ghost", "G")
	reg.Join(ghost, "room")
	require.Zero(t, reg.Publish("room", []byte("x")))
}

func TestMemory_Join_PrivateChannelsAreReserved(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	a := registrytest.NewConn("c1", "A")
	b := registrytest.NewConn("c2", "B")
	reg.Register("A", a)
	reg.Register("B", b)

	// A cannot listen on B's private channel
	reg.Join(a, "B")
	req.Equal(1, reg.Publish("B", []byte("for B")))
	req.Empty(a.Received())

	// nor drop out of its own
	reg.Leave(a, "A")
	req.Equal(1, reg.Publish("A", []byte("for A")))
	req.Len(a.Received(), 1)
}

func TestMemory_Broadcast_ExceptUser(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()
	a := registrytest.NewConn("c1", "A")
	b := registrytest.NewConn("c2", "B")
	c := registrytest.NewConn("c3", "C")
	reg.Register("A", a)
	reg.Register("B", b)
	reg.Register("C", c)

	req.Equal(2, reg.Broadcast([]byte("x"), "A"))
	req.Empty(a.Received())

	req.Equal(3, reg.Broadcast([]byte("y"), ""))
	req.Len(a.Received(), 1)
}

func TestMemory_ConcurrentRegisterUnregister(t *testing.T) {
	req := require.New(t)
	reg := registry.NewMemory()

	const users = 20
	const tabs = 5
	var mu sync.Mutex
	firsts := make(map[string]int)
	lasts := make(map[string]int)
	var wg sync.WaitGroup

	for u := 0; u < users; u++ {
		for c := 0; c < tabs; c++ {
			wg.Add(1)
			go func(u, c int) {
				defer wg.Done()
				userID := fmt.Sprintf("user-%d", u)
				conn := registrytest.NewConn(fmt.Sprintf("%s-conn-%d", userID, c), userID)
				first := reg.Register(userID, conn)
				reg.Publish(userID, []byte("ping"))
				last := reg.Unregister(userID, conn)

				mu.Lock()
				defer mu.Unlock()
				if first {
					firsts[userID]++
				}
				if last {
					lasts[userID]++
				}
			}(u, c)
		}
	}
	wg.Wait()

	// Every online edge is matched by exactly one offline edge
	req.Equal(firsts, lasts)
	req.Len(firsts, users)
	req.Zero(reg.Count())
	req.Empty(reg.Users())
}
