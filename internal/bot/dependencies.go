package bot

import (
	"context"

	api "github.com/OvyFlash/telegram-bot-api"
)

// Handler reacts to a single update. Returning false stops the handler chain.
type Handler interface {
	Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (proceed bool, err error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error)

func (f HandlerFunc) Handle(ctx context.Context, u *api.Update, chat *api.Chat, user *api.User) (bool, error) {
	return f(ctx, u, chat, user)
}
