package permissions

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestPermissionChecks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		member        *api.ChatMember
		wantManager   bool
		wantModerator bool
	}{
		{name: "nil", member: nil},
		{name: "creator", member: &api.ChatMember{Status: "creator"}, wantManager: true, wantModerator: true},
		{name: "plain member", member: &api.ChatMember{Status: "member"}},
		{name: "admin managing chat", member: &api.ChatMember{Status: "administrator", CanManageChat: true}, wantManager: true},
		{name: "admin promoting", member: &api.ChatMember{Status: "administrator", CanPromoteMembers: true}, wantManager: true},
		{name: "admin deleting", member: &api.ChatMember{Status: "administrator", CanDeleteMessages: true}, wantModerator: true},
		{name: "admin without rights", member: &api.ChatMember{Status: "administrator"}},
		{name: "member with stray flag", member: &api.ChatMember{Status: "member", CanDeleteMessages: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsManager(tt.member); got != tt.wantManager {
				t.Fatalf("IsManager() = %v, want %v", got, tt.wantManager)
			}
			if got := IsMessageModerator(tt.member); got != tt.wantModerator {
				t.Fatalf("IsMessageModerator() = %v, want %v", got, tt.wantModerator)
			}
		})
	}
}
