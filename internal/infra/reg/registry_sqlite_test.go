package reg_test

import (
	"context"
	"testing"

	"github.com/iamwavecut/pquota/internal/db/sqlite"
	"github.com/iamwavecut/pquota/internal/infra/reg"
)

func TestRegistrySurvivesRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	client, err := sqlite.NewSQLiteClient(ctx, dir, "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	registry := reg.New(client)
	if err := registry.Add(ctx, -100, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := registry.Add(ctx, -100, 12); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := registry.Remove(ctx, -100, 0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	_ = client.Close()

	reopened, err := sqlite.NewSQLiteClient(ctx, dir, "test.db")
	if err != nil {
		t.Fatalf("reopen sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	restarted := reg.New(reopened)
	if err := restarted.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if restarted.IsRestricted(-100, 0) {
		t.Fatalf("removed channel came back after restart")
	}
	if !restarted.IsRestricted(-100, 12) {
		t.Fatalf("restricted channel lost after restart")
	}
}
