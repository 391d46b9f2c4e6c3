package relay

import (
	"context"
	"encoding/json"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog"

	"github.com/Harshkesharwani789/talk-space/model"
)

const (
	defaultFwdTimeout = time.Second
)

// Relay tracks which rooms each live connection has joined and fans
// events out to room members. Delivery is best-effort, at-most-once:
// no acknowledgments, no retries, and events for empty rooms are
// silently dropped.
type Relay struct {
	logger zerolog.Logger
	reg    *Registry
}

func New(logger *zerolog.Logger, reg *Registry) *Relay {
	return &Relay{
		logger: logger.With().Str("component", "relay").Logger(),
		reg:    reg,
	}
}

// Announce joins the session to the per-user room for userID and
// confirms back to that session only. Repeated announces re-join the
// same room, which is harmless.
func (r *Relay) Announce(ctx context.Context, s *Session, userID string) {
	s.setUserID(userID)
	r.reg.Join(model.UserRoom(userID), s.ID(), s.Wire())
	r.logger.Debug().
		Str("connID", s.ID()).
		Str("userID", userID).
		Msg("session identified")

	send(ctx, model.Outbound{Event: model.EventConnected}, s.Wire().TX, &r.logger)
}

// JoinRoom joins the session to a per-chat room. Idempotent.
func (r *Relay) JoinRoom(_ context.Context, s *Session, chatID string) {
	r.reg.Join(model.ChatRoom(chatID), s.ID(), s.Wire())
	r.logger.Debug().
		Str("connID", s.ID()).
		Str("chatID", chatID).
		Msg("joined chat room")
}

// NotifyTyping broadcasts a typing-state change to every other member
// of the chat room. The originator never receives its own indicator.
func (r *Relay) NotifyTyping(ctx context.Context, s *Session, chatID string, started bool) {
	event := model.EventTyping
	if !started {
		event = model.EventStopTyping
	}
	r.broadcast(ctx, model.ChatRoom(chatID), s.ID(), model.Outbound{Event: event})
}

// RelayMessage routes a new-message payload to the per-user room of
// every participant except the sender. The raw frame data is forwarded
// untouched; only the sender id and participant list are inspected.
// A payload without participants is dropped with a local diagnostic.
func (r *Relay) RelayMessage(ctx context.Context, s *Session, raw json.RawMessage) {
	var payload model.MessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		r.logger.Error().Err(err).
			Str("connID", s.ID()).
			Msg("failed to unmarshal message payload")
		return
	}
	if len(payload.Chat.Users) == 0 {
		r.logger.Error().
			Str("connID", s.ID()).
			Msg("message payload has no chat users")
		return
	}
	r.logger.Trace().
		Str("payload", spew.Sdump(payload)).
		Msg("relaying message")

	out := model.Outbound{Event: model.EventMessageReceived, Data: raw}
	for _, user := range payload.Chat.Users {
		if user.ID == payload.Sender.ID {
			continue
		}
		r.broadcast(ctx, model.UserRoom(user.ID), s.ID(), out)
	}
}

// Disconnect releases every room membership held by the session. Safe
// to call regardless of how far the session got; runs at most once.
func (r *Relay) Disconnect(s *Session) {
	s.closeOnce.Do(func() {
		r.reg.LeaveAll(s.ID())
		r.logger.Debug().
			Str("connID", s.ID()).
			Str("userID", s.UserID()).
			Msg("session disconnected")
	})
}

func (r *Relay) broadcast(ctx context.Context, key model.RoomKey, exclude string, out model.Outbound) {
	var sent bool
	for _, member := range r.reg.Members(key) {
		if member.ConnID == exclude {
			continue
		}
		delivered, canceled := sendReport(ctx, out, member.Wire.TX, &r.logger)
		if canceled {
			return
		}
		if delivered {
			sent = true
		}
	}
	if !sent {
		r.logger.Debug().
			Str("roomID", key.ID).
			Str("event", out.Event).
			Msg("broadcast did not reach anyone")
	}
}

func send(ctx context.Context, out model.Outbound, tx chan<- model.Outbound, logger *zerolog.Logger) bool {
	sent, _ := sendReport(ctx, out, tx, logger)
	return sent
}

func sendReport(ctx context.Context, out model.Outbound, tx chan<- model.Outbound, logger *zerolog.Logger) (bool, bool) {
	var sent, canceled bool
	tCh := time.NewTimer(defaultFwdTimeout)
	select {
	case <-ctx.Done():
		canceled = true
	case <-tCh.C:
		logger.Error().Str("event", out.Event).Msg("dead endpoint")
	case tx <- out:
		sent = true
	}
	tCh.Stop()
	return sent, canceled
}
