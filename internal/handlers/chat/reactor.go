package handlers

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/pquota/internal/bot"
	"github.com/iamwavecut/pquota/internal/db"
	"github.com/iamwavecut/pquota/internal/event"
	"github.com/iamwavecut/pquota/internal/i18n"
)

type botAPI interface {
	Send(c api.Chattable) (api.Message, error)
	GetChatMember(config api.GetChatMemberConfig) (api.ChatMember, error)
}

type restrictionRegistry interface {
	Add(ctx context.Context, communityID, channelID int64) error
	Remove(ctx context.Context, communityID, channelID int64) error
	List(communityID int64) []int64
}

type deletionLog interface {
	FetchRecent(ctx context.Context, communityID int64, limit int) ([]*db.DeletionLogEntry, error)
}

type eventQueue interface {
	Enqueue(ctx context.Context, ev event.Queueable) error
}

// Reactor turns group messages into moderation events and serves the admin commands.
type Reactor struct {
	api       botAPI
	languages bot.ServiceLanguage
	registry  restrictionRegistry
	audit     deletionLog
	queue     eventQueue

	botUserName string
}

func NewReactor(s bot.Service, registry restrictionRegistry, audit deletionLog, queue eventQueue) *Reactor {
	tg := s.GetBot()
	r := &Reactor{
		api:       tg,
		languages: s,
		registry:  registry,
		audit:     audit,
		queue:     queue,
	}
	if tg != nil {
		r.botUserName = tg.Self.UserName
	}
	r.getLogEntry().Debug("created new reactor")
	return r
}

func (r *Reactor) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	entry := r.getLogEntry().WithField("method", "Handle")
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	default:
	}

	if err := r.validateUpdate(u, chat); err != nil {
		return false, err
	}
	if u.Message == nil {
		return true, nil
	}
	if !isGroup(chat) {
		if r.isOwnCommand(u.Message) {
			lang := r.languages.GetLanguage(ctx, 0, user)
			r.reply(u.Message, chat, i18n.Get("This command can only be used in groups", lang))
		}
		return true, nil
	}

	if r.isOwnCommand(u.Message) {
		if err := r.handleCommand(ctx, u.Message, chat, user); err != nil {
			entry.WithError(err).Error("error handling command")
			return true, err
		}
		return true, nil
	}

	if err := r.handleMessage(ctx, u.Message, chat, user); err != nil {
		entry.WithError(err).Error("error handling message")
		return true, err
	}
	return true, nil
}

func (r *Reactor) validateUpdate(u *api.Update, chat *api.Chat) error {
	if u == nil {
		return errors.New("nil update")
	}
	if u.Message != nil && chat == nil {
		return errors.New("nil chat")
	}
	return nil
}

func isGroup(chat *api.Chat) bool {
	return chat != nil && (chat.IsGroup() || chat.IsSuperGroup())
}

// channelOf maps a message to its forum topic. Non-forum chats and the
// general topic share channel 0.
func channelOf(msg *api.Message, chat *api.Chat) int64 {
	if chat.IsForum && msg.IsTopicMessage {
		return int64(msg.MessageThreadID)
	}
	return 0
}

func (r *Reactor) getLogEntry() *log.Entry {
	return log.WithField("object", "Reactor")
}
