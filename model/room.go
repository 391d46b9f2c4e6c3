package model

// RoomKind separates the two addressing schemes sharing one registry.
// Per-user rooms deliver directly to a user's live connections; per-chat
// rooms carry ephemeral in-conversation signals. Keeping the kind in the
// key means a chat id can never collide with a user id.
type RoomKind uint8

const (
	RoomKindUser RoomKind = iota + 1
	RoomKindChat
)

type RoomKey struct {
	Kind RoomKind
	ID   string
}

func UserRoom(userID string) RoomKey {
	return RoomKey{Kind: RoomKindUser, ID: userID}
}

func ChatRoom(chatID string) RoomKey {
	return RoomKey{Kind: RoomKindChat, ID: chatID}
}
