package bot

import (
	"context"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"

	"github.com/iamwavecut/pquota/internal/i18n"
)

type ServiceBot interface {
	GetBot() *api.BotAPI
}

type ServiceLanguage interface {
	GetLanguage(ctx context.Context, chatID int64, user *api.User) string
}

type Service interface {
	ServiceBot
	ServiceLanguage
}

type service struct {
	bot             *api.BotAPI
	defaultLanguage string
}

func NewService(bot *api.BotAPI, defaultLanguage string) *service {
	if defaultLanguage == "" {
		defaultLanguage = "en"
	}
	return &service{
		bot:             bot,
		defaultLanguage: strings.ToLower(defaultLanguage),
	}
}

func (s *service) GetBot() *api.BotAPI {
	return s.bot
}

// GetLanguage prefers the sender's client language when a translation exists for it.
func (s *service) GetLanguage(_ context.Context, _ int64, user *api.User) string {
	if user != nil && len(user.LanguageCode) >= 2 {
		code := strings.ToLower(user.LanguageCode[:2])
		if tool.In(code, i18n.GetLanguagesList()...) {
			return code
		}
	}
	return s.defaultLanguage
}
