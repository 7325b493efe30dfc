package ws

import "sort"

// Router tracks ephemeral room membership: which connections have joined
// which conversation rooms. Like Registry, it is owned by the hub loop and
// carries no locks. Rooms exist only while referenced.
type Router struct {
	members map[string]map[string]struct{} // roomID -> connIDs
	joined  map[string]map[string]struct{} // connID -> roomIDs
}

func NewRouter() *Router {
	return &Router{
		members: make(map[string]map[string]struct{}),
		joined:  make(map[string]map[string]struct{}),
	}
}

func (r *Router) Join(connID, roomID string) {
	if r.members[roomID] == nil {
		r.members[roomID] = make(map[string]struct{})
	}
	r.members[roomID][connID] = struct{}{}

	if r.joined[connID] == nil {
		r.joined[connID] = make(map[string]struct{})
	}
	r.joined[connID][roomID] = struct{}{}
}

// Leave is a no-op if the connection never joined the room.
func (r *Router) Leave(connID, roomID string) {
	delete(r.members[roomID], connID)
	if len(r.members[roomID]) == 0 {
		delete(r.members, roomID)
	}
	delete(r.joined[connID], roomID)
	if len(r.joined[connID]) == 0 {
		delete(r.joined, connID)
	}
}

// DropConnection removes the connection from every room it had joined and
// returns the rooms it left.
func (r *Router) DropConnection(connID string) []string {
	rooms := r.Rooms(connID)
	for _, roomID := range rooms {
		r.Leave(connID, roomID)
	}
	return rooms
}

func (r *Router) InRoom(connID, roomID string) bool {
	_, ok := r.members[roomID][connID]
	return ok
}

// Members returns the room's member connections, sorted for determinism.
func (r *Router) Members(roomID string) []string {
	conns := make([]string, 0, len(r.members[roomID]))
	for id := range r.members[roomID] {
		conns = append(conns, id)
	}
	sort.Strings(conns)
	return conns
}

func (r *Router) Rooms(connID string) []string {
	rooms := make([]string, 0, len(r.joined[connID]))
	for id := range r.joined[connID] {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)
	return rooms
}
