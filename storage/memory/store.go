package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Harshkesharwani789/talk-space/model"
	"github.com/Harshkesharwani789/talk-space/storage"
)

// MemStore keeps users, chats and messages in process memory. It backs
// tests and runs the API without a Mongo instance; nothing survives a
// restart.
type MemStore struct {
	mx       *sync.Mutex
	users    map[string]*model.User
	chats    map[string]*model.Chat
	messages map[string][]model.Message
}

func NewMemStore() *MemStore {
	return &MemStore{
		mx:       &sync.Mutex{},
		users:    make(map[string]*model.User),
		chats:    make(map[string]*model.Chat),
		messages: make(map[string][]model.Message),
	}
}

func (ms *MemStore) CreateUser(_ context.Context, user model.User) error {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	for _, u := range ms.users {
		if u.Email == user.Email {
			return storage.ErrEmailTaken
		}
	}
	ms.users[user.ID] = &user
	return nil
}

func (ms *MemStore) UserByEmail(_ context.Context, email string) (*model.User, error) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	for _, u := range ms.users {
		if u.Email == email {
			user := *u
			return &user, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (ms *MemStore) UserByID(_ context.Context, userID string) (*model.User, error) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	u, ok := ms.users[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	user := *u
	return &user, nil
}

func (ms *MemStore) CreateChat(_ context.Context, chat model.Chat) error {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	ms.chats[chat.ID] = &chat
	return nil
}

func (ms *MemStore) ChatsForUser(_ context.Context, userID string) ([]model.Chat, error) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	var chats []model.Chat
	for _, c := range ms.chats {
		for _, id := range c.UserIDs {
			if id == userID {
				chats = append(chats, *c)
				break
			}
		}
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].CreatedAt.Before(chats[j].CreatedAt)
	})
	return chats, nil
}

func (ms *MemStore) AppendMessage(_ context.Context, msg model.Message) error {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	if _, ok := ms.chats[msg.ChatID]; !ok {
		return storage.ErrNotFound
	}
	ms.messages[msg.ChatID] = append(ms.messages[msg.ChatID], msg)
	return nil
}

func (ms *MemStore) MessagesByChat(_ context.Context, chatID string) ([]model.Message, error) {
	ms.mx.Lock()
	defer ms.mx.Unlock()

	msgs := make([]model.Message, len(ms.messages[chatID]))
	copy(msgs, ms.messages[chatID])
	return msgs, nil
}
