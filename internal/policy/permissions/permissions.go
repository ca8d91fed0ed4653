package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// IsManager reports creators and admins allowed to change chat setup.
func IsManager(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && (member.CanManageChat || member.CanPromoteMembers)
}

// IsMessageModerator reports creators and admins allowed to delete messages of others.
func IsMessageModerator(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && member.CanDeleteMessages
}
