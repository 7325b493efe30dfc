package ws

import "sort"

// Registry maps active connection ids to authenticated user ids and derives
// the presence set from those bindings. It is mutated only by the hub's
// event loop, so it carries no locks of its own; constructing independent
// instances is how tests (and a future sharded hub) isolate state.
type Registry struct {
	byConn map[string]string
	byUser map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]string),
		byUser: make(map[string]map[string]struct{}),
	}
}

// Authenticate binds connID to userID and reports whether the derived
// presence set changed. Re-authenticating the same pair is a no-op;
// rebinding to a different user releases the old binding first, and the
// set changed if either the old user went offline or the new one came
// online.
func (r *Registry) Authenticate(connID, userID string) bool {
	changed := false
	if prev, ok := r.byConn[connID]; ok {
		if prev == userID {
			return false
		}
		changed = r.release(connID, prev)
	}

	r.byConn[connID] = userID
	if len(r.byUser[userID]) == 0 {
		changed = true
		r.byUser[userID] = make(map[string]struct{})
	}
	r.byUser[userID][connID] = struct{}{}
	return changed
}

// Disconnect removes the binding for connID. changed is true iff this was
// the user's last connection, i.e. the presence set shrank.
func (r *Registry) Disconnect(connID string) (userID string, changed bool) {
	userID, ok := r.byConn[connID]
	if !ok {
		return "", false
	}
	return userID, r.release(connID, userID)
}

func (r *Registry) release(connID, userID string) bool {
	delete(r.byConn, connID)
	conns := r.byUser[userID]
	delete(conns, connID)
	if len(conns) == 0 {
		delete(r.byUser, userID)
		return true
	}
	return false
}

func (r *Registry) IsOnline(userID string) bool {
	return len(r.byUser[userID]) > 0
}

// UserFor returns the bound user for a connection, if authenticated.
func (r *Registry) UserFor(connID string) (string, bool) {
	userID, ok := r.byConn[connID]
	return userID, ok
}

// OnlineUsers returns the presence set as a sorted snapshot.
func (r *Registry) OnlineUsers() []string {
	users := make([]string, 0, len(r.byUser))
	for id := range r.byUser {
		users = append(users, id)
	}
	sort.Strings(users)
	return users
}
