package sqlite

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/iamwavecut/pquota/internal/db"
	errs "github.com/iamwavecut/pquota/internal/errors"
)

func newTestClient(t *testing.T) *sqliteClient {
	t.Helper()

	client, err := NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRestrictedChannelsAddIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	key := db.RestrictionKey{CommunityID: -1001, ChannelID: 7}
	for i := 0; i < 2; i++ {
		if err := client.AddRestrictedChannel(ctx, key); err != nil {
			t.Fatalf("add restricted channel (attempt %d): %v", i+1, err)
		}
	}
	if err := client.AddRestrictedChannel(ctx, db.RestrictionKey{CommunityID: -1001, ChannelID: 8}); err != nil {
		t.Fatalf("add second channel: %v", err)
	}

	keys, err := client.ListRestrictedChannels(ctx)
	if err != nil {
		t.Fatalf("list restricted channels: %v", err)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].ChannelID < keys[j].ChannelID })
	want := []db.RestrictionKey{{CommunityID: -1001, ChannelID: 7}, {CommunityID: -1001, ChannelID: 8}}
	if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("unexpected keys: got %v want %v", keys, want)
	}
}

func TestRestrictedChannelsRemoveMissingSucceeds(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	key := db.RestrictionKey{CommunityID: 1, ChannelID: 2}
	if err := client.RemoveRestrictedChannel(ctx, key); err != nil {
		t.Fatalf("remove missing channel: %v", err)
	}
	if err := client.AddRestrictedChannel(ctx, key); err != nil {
		t.Fatalf("add channel: %v", err)
	}
	if err := client.RemoveRestrictedChannel(ctx, key); err != nil {
		t.Fatalf("remove channel: %v", err)
	}
	keys, err := client.ListRestrictedChannels(ctx)
	if err != nil {
		t.Fatalf("list restricted channels: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected no keys, got %v", keys)
	}
}

func TestRestrictedChannelsClosedClientReturnsStorageError(t *testing.T) {
	t.Parallel()

	client, err := NewSQLiteClient(context.Background(), t.TempDir(), "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	_ = client.Close()

	err = client.AddRestrictedChannel(context.Background(), db.RestrictionKey{CommunityID: 1, ChannelID: 1})
	if !errors.Is(err, errs.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
