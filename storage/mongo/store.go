package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Harshkesharwani789/talk-space/model"
	"github.com/Harshkesharwani789/talk-space/storage"
)

const (
	defaultConnectTimeout = 10 * time.Second

	collUsers    = "users"
	collChats    = "chats"
	collMessages = "messages"
)

// Store persists users, chats and messages in MongoDB. The relay never
// touches it; only the HTTP API does.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

type Config struct {
	URI      string
	Database string
}

func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	st := &Store{
		client: client,
		db:     client.Database(cfg.Database),
	}
	if err = st.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *Store) ensureIndexes(ctx context.Context) error {
	_, err := st.db.Collection(collUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = st.db.Collection(collMessages).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (st *Store) Close(ctx context.Context) error {
	return st.client.Disconnect(ctx)
}

func (st *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := st.db.Collection(collUsers).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrEmailTaken
	}
	return err
}

func (st *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := st.db.Collection(collUsers).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (st *Store) UserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := st.db.Collection(collUsers).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (st *Store) CreateChat(ctx context.Context, chat model.Chat) error {
	_, err := st.db.Collection(collChats).InsertOne(ctx, chat)
	return err
}

func (st *Store) ChatsForUser(ctx context.Context, userID string) ([]model.Chat, error) {
	cur, err := st.db.Collection(collChats).Find(ctx,
		bson.M{"users": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var chats []model.Chat
	if err = cur.All(ctx, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (st *Store) AppendMessage(ctx context.Context, msg model.Message) error {
	count, err := st.db.Collection(collChats).CountDocuments(ctx, bson.M{"_id": msg.ChatID})
	if err != nil {
		return err
	}
	if count == 0 {
		return storage.ErrNotFound
	}
	_, err = st.db.Collection(collMessages).InsertOne(ctx, msg)
	return err
}

func (st *Store) MessagesByChat(ctx context.Context, chatID string) ([]model.Message, error) {
	cur, err := st.db.Collection(collMessages).Find(ctx,
		bson.M{"chat": chatID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	var msgs []model.Message
	if err = cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
