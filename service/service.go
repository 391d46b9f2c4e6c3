package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Harshkesharwani789/talk-space/model"
	"github.com/Harshkesharwani789/talk-space/relay"
)

var (
	ErrMalformedData = errors.New("malformed event data")
	ErrUnknownEvent  = errors.New("unknown event")
)

type (
	// EventRelay is the presence and fan-out core.
	EventRelay interface {
		Announce(ctx context.Context, s *relay.Session, userID string)
		JoinRoom(ctx context.Context, s *relay.Session, chatID string)
		NotifyTyping(ctx context.Context, s *relay.Session, chatID string, started bool)
		RelayMessage(ctx context.Context, s *relay.Session, raw json.RawMessage)
		Disconnect(s *relay.Session)
	}

	// Service translates transport frames into relay operations and
	// owns the session lifecycle. Dispatch errors are diagnostics for
	// the caller's log; nothing is ever surfaced back to the client.
	Service struct {
		relay  EventRelay
		logger zerolog.Logger
	}

	Config struct {
		Relay  EventRelay
		Logger *zerolog.Logger
	}
)

func NewService(cfg Config) *Service {
	return &Service{
		relay:  cfg.Relay,
		logger: cfg.Logger.With().Str("component", "service").Logger(),
	}
}

func (svc *Service) CreateSession(connID string, wire model.Wire) *relay.Session {
	s := relay.NewSession(connID, wire)
	svc.logger.Debug().Str("connID", connID).Msg("session created")
	return s
}

// CloseSession releases the session's room memberships. Exactly-once
// semantics are guaranteed by the relay regardless of caller behavior.
func (svc *Service) CloseSession(s *relay.Session) {
	svc.relay.Disconnect(s)
}

// Dispatch handles one inbound frame to completion. Frames from a
// single connection are dispatched in arrival order by the transport.
func (svc *Service) Dispatch(ctx context.Context, s *relay.Session, in model.Inbound) error {
	switch in.Event {
	case model.EventSetup:
		var user model.UserRef
		if err := json.Unmarshal(in.Data, &user); err != nil || user.ID == "" {
			return errors.Join(ErrMalformedData, err)
		}
		svc.relay.Announce(ctx, s, user.ID)

	case model.EventJoinChat:
		chatID, err := decodeRoomID(in.Data)
		if err != nil {
			return err
		}
		svc.relay.JoinRoom(ctx, s, chatID)

	case model.EventTyping, model.EventStopTyping:
		chatID, err := decodeRoomID(in.Data)
		if err != nil {
			return err
		}
		svc.relay.NotifyTyping(ctx, s, chatID, in.Event == model.EventTyping)

	case model.EventNewMessage:
		svc.relay.RelayMessage(ctx, s, in.Data)

	default:
		return ErrUnknownEvent
	}
	return nil
}

func decodeRoomID(data json.RawMessage) (string, error) {
	var roomID string
	if err := json.Unmarshal(data, &roomID); err != nil {
		return "", errors.Join(ErrMalformedData, err)
	}
	if roomID == "" {
		return "", ErrMalformedData
	}
	return roomID, nil
}
