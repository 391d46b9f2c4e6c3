package relay_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Harshkesharwani789/talk-space/model"
	"github.com/Harshkesharwani789/talk-space/relay"
)

func TestRegistryJoinLeave(t *testing.T) {
	reg := relay.NewRegistry()
	key := model.ChatRoom("chat42")

	assert.Empty(t, reg.Members(key), "unknown room has no members")

	reg.Join(key, "conn-a", model.NewWire())
	reg.Join(key, "conn-b", model.NewWire())
	reg.Join(key, "conn-b", model.NewWire()) // re-join replaces, never duplicates
	require.Len(t, reg.Members(key), 2)

	reg.Leave(key, "conn-a")
	members := reg.Members(key)
	require.Len(t, members, 1)
	assert.Equal(t, "conn-b", members[0].ConnID)

	reg.Leave(key, "conn-b")
	assert.Empty(t, reg.Members(key), "room ceases to exist when empty")
}

func TestRegistryKindsDoNotCollide(t *testing.T) {
	reg := relay.NewRegistry()

	reg.Join(model.UserRoom("42"), "conn-a", model.NewWire())
	reg.Join(model.ChatRoom("42"), "conn-b", model.NewWire())

	userMembers := reg.Members(model.UserRoom("42"))
	require.Len(t, userMembers, 1)
	assert.Equal(t, "conn-a", userMembers[0].ConnID)

	chatMembers := reg.Members(model.ChatRoom("42"))
	require.Len(t, chatMembers, 1)
	assert.Equal(t, "conn-b", chatMembers[0].ConnID)
}

func TestRegistryLeaveAll(t *testing.T) {
	reg := relay.NewRegistry()

	reg.Join(model.UserRoom("u1"), "conn-a", model.NewWire())
	reg.Join(model.ChatRoom("chat42"), "conn-a", model.NewWire())
	reg.Join(model.ChatRoom("chat42"), "conn-b", model.NewWire())

	reg.LeaveAll("conn-a")

	assert.Empty(t, reg.Members(model.UserRoom("u1")))
	require.Len(t, reg.Members(model.ChatRoom("chat42")), 1)

	reg.LeaveAll("conn-a") // unknown connection is fine
}

func TestRegistryMembersIsSnapshot(t *testing.T) {
	reg := relay.NewRegistry()
	key := model.ChatRoom("chat42")
	reg.Join(key, "conn-a", model.NewWire())

	members := reg.Members(key)
	reg.Leave(key, "conn-a")

	require.Len(t, members, 1, "snapshot must not observe later mutations")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := relay.NewRegistry()
	key := model.ChatRoom("chat42")

	wg := &sync.WaitGroup{}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", n)
			for j := 0; j < 100; j++ {
				reg.Join(key, connID, model.NewWire())
				reg.Members(key)
				reg.LeaveAll(connID)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, reg.Members(key))
}
