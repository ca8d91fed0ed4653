package handlers

import (
	"context"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/pquota/internal/bot"
	"github.com/iamwavecut/pquota/internal/event"
	moderation "github.com/iamwavecut/pquota/internal/handlers/moderation"
)

// MessageEventType is the queue topic carrying moderation events.
const MessageEventType = "message"

// telegramServiceUserID authors automatic forwards from a linked channel.
const telegramServiceUserID = 777000

type MessageEvent struct {
	*event.Base
	moderation.Event
}

func NewMessageEvent(ev moderation.Event) *MessageEvent {
	return &MessageEvent{
		Base:  event.CreateBase(MessageEventType, time.Time{}),
		Event: ev,
	}
}

type eventHandler interface {
	Handle(ctx context.Context, ev moderation.Event) (moderation.Outcome, error)
}

// Subscriber adapts the moderation pipeline to the event queue.
func Subscriber(pipeline eventHandler) event.Handler {
	return func(ctx context.Context, queued event.Queueable) {
		msgEvent, ok := queued.(*MessageEvent)
		if !ok {
			log.WithField("object", "Reactor").Warnf("unexpected event %T", queued)
			return
		}
		entry := log.WithFields(log.Fields{
			"object":     "Reactor",
			"method":     "Subscriber",
			"chat_id":    msgEvent.CommunityID,
			"thread_id":  msgEvent.ChannelID,
			"user_id":    msgEvent.UserID,
			"message_id": msgEvent.MessageID,
		})
		outcome, err := pipeline.Handle(ctx, msgEvent.Event)
		if err != nil {
			entry.WithError(err).WithField("outcome", outcome).Error("moderation failed")
			return
		}
		entry.WithField("outcome", outcome).Trace("moderated")
	}
}

func (r *Reactor) handleMessage(ctx context.Context, msg *api.Message, chat *api.Chat, user *api.User) error {
	if bot.IsServiceMessage(msg) {
		return nil
	}
	ev := toModerationEvent(msg, chat, user)
	if err := r.queue.Enqueue(ctx, NewMessageEvent(ev)); err != nil {
		return errors.WithMessage(err, "cant enqueue message")
	}
	return nil
}

func toModerationEvent(msg *api.Message, chat *api.Chat, user *api.User) moderation.Event {
	ev := moderation.Event{
		CommunityID:       chat.ID,
		ChannelID:         channelOf(msg, chat),
		MessageID:         msg.MessageID,
		IsAutomatedAuthor: isAutomatedAuthor(msg, user),
		HasImageOrSticker: bot.HasImageOrSticker(msg),
		Text:              bot.MessageText(msg),
	}
	if user != nil {
		ev.UserID = user.ID
	}
	return ev
}

func isAutomatedAuthor(msg *api.Message, user *api.User) bool {
	switch {
	case user == nil:
		return true
	case user.IsBot:
		return true
	case user.ID == telegramServiceUserID:
		return true
	case msg.IsAutomaticForward:
		return true
	}
	return false
}
