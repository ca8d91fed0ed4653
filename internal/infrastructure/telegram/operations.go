package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
	"golang.org/x/time/rate"

	errs "github.com/iamwavecut/pquota/internal/errors"
	moderation "github.com/iamwavecut/pquota/internal/handlers/moderation"
)

type requester interface {
	Request(c api.Chattable) (*api.APIResponse, error)
}

// Operations performs rate limited Telegram calls on behalf of the pipeline.
type Operations struct {
	bot     requester
	limiter *rate.Limiter
}

// NewOperations creates an Operations instance allowing rps requests per second.
func NewOperations(bot requester, rps float64) *Operations {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Operations{
		bot:     bot,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// DeleteMessage deletes a message; failures wrap ErrForbidden, ErrAlreadyGone or ErrTransport.
func (o *Operations) DeleteMessage(ctx context.Context, handle moderation.MessageHandle) error {
	if err := o.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: wait for rate limiter: %w", errs.ErrTransport, err)
	}
	if _, err := o.bot.Request(api.NewDeleteMessage(handle.ChatID, handle.MessageID)); err != nil {
		return classifyDeleteError(err)
	}
	return nil
}

func classifyDeleteError(err error) error {
	description := strings.ToLower(err.Error())
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		description = strings.ToLower(apiErr.Message)
		if apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("%w: %s", errs.ErrForbidden, apiErr.Message)
		}
	}

	switch {
	case strings.Contains(description, "not enough rights"),
		strings.Contains(description, "forbidden"):
		return fmt.Errorf("%w: %s", errs.ErrForbidden, err.Error())
	case strings.Contains(description, "message to delete not found"),
		strings.Contains(description, "message can't be deleted"):
		return fmt.Errorf("%w: %s", errs.ErrAlreadyGone, err.Error())
	default:
		return fmt.Errorf("failed to delete message: %w: %w", errs.ErrTransport, err)
	}
}
