package ws_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"community-backend/ws"
)

func TestRegistryAuthenticate(t *testing.T) {
	reg := ws.NewRegistry()

	assert.True(t, reg.Authenticate("c1", "alice"), "first connection should change presence")
	assert.True(t, reg.IsOnline("alice"))
	assert.Equal(t, []string{"alice"}, reg.OnlineUsers())

	// Idempotent per connection.
	assert.False(t, reg.Authenticate("c1", "alice"))
	assert.Equal(t, []string{"alice"}, reg.OnlineUsers())
}

func TestRegistryMultipleConnectionsPerUser(t *testing.T) {
	reg := ws.NewRegistry()

	assert.True(t, reg.Authenticate("tab1", "alice"))
	assert.False(t, reg.Authenticate("tab2", "alice"), "second tab should not change presence")

	// Closing one tab keeps the user online.
	_, changed := reg.Disconnect("tab1")
	assert.False(t, changed)
	assert.True(t, reg.IsOnline("alice"))

	// Closing the last tab takes the user offline.
	userID, changed := reg.Disconnect("tab2")
	assert.True(t, changed)
	assert.Equal(t, "alice", userID)
	assert.False(t, reg.IsOnline("alice"))
	assert.Empty(t, reg.OnlineUsers())
}

func TestRegistryDisconnectUnknownConnection(t *testing.T) {
	reg := ws.NewRegistry()
	userID, changed := reg.Disconnect("nope")
	assert.Empty(t, userID)
	assert.False(t, changed)
}

func TestRegistryRebind(t *testing.T) {
	reg := ws.NewRegistry()

	reg.Authenticate("c1", "alice")
	assert.True(t, reg.Authenticate("c1", "bob"), "rebinding should bring bob online")
	assert.False(t, reg.IsOnline("alice"))
	assert.True(t, reg.IsOnline("bob"))

	userID, ok := reg.UserFor("c1")
	assert.True(t, ok)
	assert.Equal(t, "bob", userID)
}

func TestRegistryRebindToAlreadyOnlineUser(t *testing.T) {
	reg := ws.NewRegistry()

	reg.Authenticate("c1", "alice")
	reg.Authenticate("c2", "bob")

	// c1 rebinds to bob: bob was already online, but alice just went
	// offline, so the derived set changed.
	assert.True(t, reg.Authenticate("c1", "bob"))
	assert.False(t, reg.IsOnline("alice"))
	assert.Equal(t, []string{"bob"}, reg.OnlineUsers())
}

func TestRegistryOnlineUsersSorted(t *testing.T) {
	reg := ws.NewRegistry()
	reg.Authenticate("c1", "carol")
	reg.Authenticate("c2", "alice")
	reg.Authenticate("c3", "bob")
	assert.Equal(t, []string{"alice", "bob", "carol"}, reg.OnlineUsers())
}
