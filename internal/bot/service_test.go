package bot_test

import (
	"context"
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"

	"github.com/iamwavecut/pquota/internal/bot"
)

func TestServiceGetLanguage(t *testing.T) {
	t.Parallel()

	service := bot.NewService(&api.BotAPI{}, "DE")

	tests := []struct {
		name string
		user *api.User
		want string
	}{
		{name: "nil user", user: nil, want: "de"},
		{name: "no language code", user: &api.User{ID: 1}, want: "de"},
		{name: "supported code", user: &api.User{ID: 1, LanguageCode: "ru"}, want: "ru"},
		{name: "regional variant", user: &api.User{ID: 1, LanguageCode: "uk-UA"}, want: "uk"},
		{name: "unsupported code", user: &api.User{ID: 1, LanguageCode: "xx"}, want: "de"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := service.GetLanguage(context.Background(), -100, tt.user); got != tt.want {
				t.Fatalf("GetLanguage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServiceDefaultsToEnglish(t *testing.T) {
	t.Parallel()

	service := bot.NewService(nil, "")
	if got := service.GetLanguage(context.Background(), 1, nil); got != "en" {
		t.Fatalf("GetLanguage() = %q, want en", got)
	}
	if service.GetBot() != nil {
		t.Fatalf("expected nil bot")
	}
}
