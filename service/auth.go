package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Harshkesharwani789/talk-space/auth"
	"github.com/Harshkesharwani789/talk-space/model"
)

var (
	ErrRegister = errors.New("unable to register user")
	ErrLogin    = errors.New("unable to log in")
)

type (
	UserStore interface {
		CreateUser(ctx context.Context, user model.User) error
		UserByEmail(ctx context.Context, email string) (*model.User, error)
	}

	// Auth implements the identity collaborator for the HTTP API.
	Auth struct {
		store  UserStore
		tokens *auth.Manager
		logger zerolog.Logger
	}

	AuthConfig struct {
		Store  UserStore
		Tokens *auth.Manager
		Logger *zerolog.Logger
	}
)

func NewAuth(cfg AuthConfig) *Auth {
	return &Auth{
		store:  cfg.Store,
		tokens: cfg.Tokens,
		logger: cfg.Logger.With().Str("component", "auth").Logger(),
	}
}

func (a *Auth) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", errors.Join(ErrRegister, err)
	}
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err = a.store.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", errors.Join(ErrRegister, err)
	}
	a.logger.Debug().Str("userID", user.ID).Msg("user registered")
	return &user, token, nil
}

func (a *Auth) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := a.store.UserByEmail(ctx, email)
	if err != nil {
		return nil, "", errors.Join(ErrLogin, auth.ErrInvalidCredentials)
	}
	if err = auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, "", errors.Join(ErrLogin, err)
	}
	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", errors.Join(ErrLogin, err)
	}
	a.logger.Debug().Str("userID", user.ID).Msg("user logged in")
	return user, token, nil
}

func (a *Auth) Verify(token string) (string, error) {
	return a.tokens.Verify(token)
}
