package relay

import (
	"sync"

	"github.com/Harshkesharwani789/talk-space/model"
)

// Member is one connection's entry in a room snapshot.
type Member struct {
	ConnID string
	Wire   model.Wire
}

// Registry owns the room membership table: room key -> set of live
// connections. Rooms exist only while they have members; joining an
// unknown room creates it, removing the last member drops it.
//
// Mutations hold the write lock; Members takes a snapshot under the
// read lock so broadcasts never iterate shared maps.
type Registry struct {
	mx     *sync.RWMutex
	rooms  map[model.RoomKey]map[string]model.Wire
	joined map[string]map[model.RoomKey]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		mx:     &sync.RWMutex{},
		rooms:  make(map[model.RoomKey]map[string]model.Wire),
		joined: make(map[string]map[model.RoomKey]struct{}),
	}
}

// Join adds the connection to the room. Idempotent.
func (reg *Registry) Join(key model.RoomKey, connID string, wire model.Wire) {
	reg.mx.Lock()
	defer reg.mx.Unlock()

	room, ok := reg.rooms[key]
	if !ok {
		room = make(map[string]model.Wire)
		reg.rooms[key] = room
	}
	room[connID] = wire

	keys, ok := reg.joined[connID]
	if !ok {
		keys = make(map[model.RoomKey]struct{})
		reg.joined[connID] = keys
	}
	keys[key] = struct{}{}
}

// Leave removes the connection from one room.
func (reg *Registry) Leave(key model.RoomKey, connID string) {
	reg.mx.Lock()
	defer reg.mx.Unlock()
	reg.leave(key, connID)
}

// LeaveAll releases every membership held by the connection.
func (reg *Registry) LeaveAll(connID string) {
	reg.mx.Lock()
	defer reg.mx.Unlock()

	for key := range reg.joined[connID] {
		reg.leave(key, connID)
	}
}

func (reg *Registry) leave(key model.RoomKey, connID string) {
	if room, ok := reg.rooms[key]; ok {
		delete(room, connID)
		if len(room) == 0 {
			delete(reg.rooms, key)
		}
	}
	if keys, ok := reg.joined[connID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(reg.joined, connID)
		}
	}
}

// Members returns a point-in-time snapshot of the room.
func (reg *Registry) Members(key model.RoomKey) []Member {
	reg.mx.RLock()
	defer reg.mx.RUnlock()

	room := reg.rooms[key]
	if len(room) == 0 {
		return nil
	}
	members := make([]Member, 0, len(room))
	for connID, wire := range room {
		members = append(members, Member{ConnID: connID, Wire: wire})
	}
	return members
}
