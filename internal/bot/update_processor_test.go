package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
)

func newMessageUpdate(date time.Time) *api.Update {
	return &api.Update{
		UpdateID: 1,
		Message: &api.Message{
			MessageID: 10,
			Date:      int(date.Unix()),
			From:      &api.User{ID: 42},
			Text:      "hello",
		},
	}
}

func TestUpdateProcessorRunsHandlersInOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	first := HandlerFunc(func(_ context.Context, _ *api.Update, _ *api.Chat, user *api.User) (bool, error) {
		if user == nil || user.ID != 42 {
			t.Fatalf("unexpected user: %+v", user)
		}
		calls = append(calls, "first")
		return true, nil
	})
	second := HandlerFunc(func(context.Context, *api.Update, *api.Chat, *api.User) (bool, error) {
		calls = append(calls, "second")
		return false, nil
	})
	third := HandlerFunc(func(context.Context, *api.Update, *api.Chat, *api.User) (bool, error) {
		calls = append(calls, "third")
		return true, nil
	})

	up := NewUpdateProcessor(first, nil, second, third)
	if err := up.Process(context.Background(), newMessageUpdate(time.Now())); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

func TestUpdateProcessorSkipsOutdatedUpdates(t *testing.T) {
	t.Parallel()

	called := false
	up := NewUpdateProcessor(HandlerFunc(func(context.Context, *api.Update, *api.Chat, *api.User) (bool, error) {
		called = true
		return true, nil
	}))
	if err := up.Process(context.Background(), newMessageUpdate(time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("process: %v", err)
	}
	if called {
		t.Fatalf("outdated update reached handler")
	}
}

func TestUpdateProcessorWrapsHandlerError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	up := NewUpdateProcessor(HandlerFunc(func(context.Context, *api.Update, *api.Chat, *api.User) (bool, error) {
		return false, sentinel
	}))
	err := up.Process(context.Background(), newMessageUpdate(time.Now()))
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
}

func TestUpdateProcessorRejectsNilAndCanceled(t *testing.T) {
	t.Parallel()

	up := NewUpdateProcessor()
	if err := up.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil update")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := up.Process(ctx, newMessageUpdate(time.Now())); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestGetUN(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		user *api.User
		want string
	}{
		{name: "nil", user: nil, want: ""},
		{name: "username", user: &api.User{UserName: "alice", FirstName: "Alice"}, want: "alice"},
		{name: "full name", user: &api.User{FirstName: "Bob", LastName: "Smith"}, want: "Bob Smith"},
		{name: "first name only", user: &api.User{FirstName: "Carol"}, want: "Carol"},
	}
	for _, tt := range tests {
		if got := GetUN(tt.user); got != tt.want {
			t.Fatalf("%s: GetUN() = %q, want %q", tt.name, got, tt.want)
		}
	}
}
