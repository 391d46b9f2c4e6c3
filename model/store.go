package model

import "time"

// Persisted documents. Field names follow the original collections so
// existing clients keep working.

type User struct {
	ID           string    `json:"_id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type Chat struct {
	ID        string    `json:"_id" bson:"_id"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	UserIDs   []string  `json:"users" bson:"users"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Message struct {
	ID        string    `json:"_id" bson:"_id"`
	ChatID    string    `json:"chat" bson:"chat"`
	SenderID  string    `json:"sender" bson:"sender"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}
