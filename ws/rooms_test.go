package ws_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"community-backend/ws"
)

func TestRouterJoinLeave(t *testing.T) {
	router := ws.NewRouter()

	router.Join("c1", "conv-1")
	router.Join("c2", "conv-1")
	router.Join("c1", "conv-2")

	assert.Equal(t, []string{"c1", "c2"}, router.Members("conv-1"))
	assert.Equal(t, []string{"c1"}, router.Members("conv-2"))
	assert.Equal(t, []string{"conv-1", "conv-2"}, router.Rooms("c1"))
	assert.True(t, router.InRoom("c1", "conv-1"))

	router.Leave("c1", "conv-1")
	assert.Equal(t, []string{"c2"}, router.Members("conv-1"))
	assert.False(t, router.InRoom("c1", "conv-1"))
}

func TestRouterLeaveIsNoOpWhenAbsent(t *testing.T) {
	router := ws.NewRouter()
	router.Leave("c1", "conv-1")
	assert.Empty(t, router.Members("conv-1"))
}

func TestRouterReplayEquivalence(t *testing.T) {
	// After any join/leave sequence, the member set equals the connections
	// that joined and have not since left or disconnected.
	router := ws.NewRouter()

	type op struct {
		join bool
		conn string
	}
	ops := []op{
		{true, "a"}, {true, "b"}, {false, "a"}, {true, "c"},
		{true, "a"}, {false, "b"}, {true, "d"}, {false, "d"},
	}
	want := map[string]bool{}
	for _, o := range ops {
		if o.join {
			router.Join(o.conn, "room")
			want[o.conn] = true
		} else {
			router.Leave(o.conn, "room")
			delete(want, o.conn)
		}
	}

	members := router.Members("room")
	assert.Len(t, members, len(want))
	for _, m := range members {
		assert.True(t, want[m], "unexpected member %s", m)
	}
}

func TestRouterDropConnection(t *testing.T) {
	router := ws.NewRouter()
	router.Join("c1", "conv-1")
	router.Join("c1", "conv-2")
	router.Join("c2", "conv-1")

	left := router.DropConnection("c1")
	assert.Equal(t, []string{"conv-1", "conv-2"}, left)
	assert.Equal(t, []string{"c2"}, router.Members("conv-1"))
	assert.Empty(t, router.Members("conv-2"))
	assert.Empty(t, router.Rooms("c1"))
}
