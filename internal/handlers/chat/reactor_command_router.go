package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/iamwavecut/tool"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/iamwavecut/pquota/internal/audit"
	"github.com/iamwavecut/pquota/internal/db"
	"github.com/iamwavecut/pquota/internal/i18n"
	"github.com/iamwavecut/pquota/internal/policy/permissions"
	"github.com/iamwavecut/pquota/internal/quota"
)

const (
	// DefaultDeletionsLimit applies when /deletions has no argument.
	DefaultDeletionsLimit = 50
	// ReplyChunkSize bounds a single reply, counted in runes.
	ReplyChunkSize = 1800

	deletionLineTemplate = `{{ .when }} — #{{ .channel }} — id{{ .user_id }} — {{ .excerpt }}`
)

type command struct {
	check func(member *api.ChatMember) bool
	run   func(r *Reactor, ctx context.Context, msg *api.Message, chat *api.Chat, lang string) error
}

var commands = map[string]command{
	"restrict":   {check: permissions.IsManager, run: (*Reactor).restrictCommand},
	"unrestrict": {check: permissions.IsManager, run: (*Reactor).unrestrictCommand},
	"deletions":  {check: permissions.IsMessageModerator, run: (*Reactor).deletionsCommand},
	"logs":       {check: permissions.IsMessageModerator, run: (*Reactor).deletionsCommand},
	"restricted": {check: permissions.IsMessageModerator, run: (*Reactor).restrictedCommand},
}

func isKnownCommand(name string) bool {
	_, ok := commands[strings.ToLower(name)]
	return ok
}

// isOwnCommand reports a known command that is either unaddressed or
// addressed to this bot with /command@username.
func (r *Reactor) isOwnCommand(msg *api.Message) bool {
	if !msg.IsCommand() || !isKnownCommand(msg.Command()) {
		return false
	}
	_, target, addressed := strings.Cut(msg.CommandWithAt(), "@")
	if !addressed || r.botUserName == "" {
		return true
	}
	return strings.EqualFold(target, r.botUserName)
}

func (r *Reactor) handleCommand(ctx context.Context, msg *api.Message, chat *api.Chat, user *api.User) error {
	entry := r.getLogEntry().WithFields(log.Fields{
		"method":  "handleCommand",
		"command": msg.Command(),
		"chat_id": chat.ID,
	})
	cmd := commands[strings.ToLower(msg.Command())]
	lang := r.languages.GetLanguage(ctx, chat.ID, user)

	if user == nil {
		r.reply(msg, chat, i18n.Get("You lack permissions for this command.", lang))
		return nil
	}
	entry = entry.WithField("user_id", user.ID)

	member, err := r.api.GetChatMember(api.GetChatMemberConfig{
		ChatConfigWithUser: api.ChatConfigWithUser{
			ChatConfig: api.ChatConfig{
				ChatID: chat.ID,
			},
			UserID: user.ID,
		},
	})
	if err != nil {
		entry.WithError(err).Error("failed to get chat member")
		r.reply(msg, chat, fmt.Sprintf(i18n.Get("Error: %s", lang), err.Error()))
		return nil
	}
	if !cmd.check(&member) {
		entry.Debug("insufficient rights")
		r.reply(msg, chat, i18n.Get("You lack permissions for this command.", lang))
		return nil
	}

	if err := cmd.run(r, ctx, msg, chat, lang); err != nil {
		entry.WithError(err).Error("command failed")
		r.reply(msg, chat, fmt.Sprintf(i18n.Get("Error: %s", lang), err.Error()))
		return nil
	}
	return nil
}

// targetChannel defaults to the invoking topic; a numeric argument names another one.
func targetChannel(msg *api.Message, chat *api.Chat) (int64, error) {
	arg := strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "#")
	if arg == "" {
		return channelOf(msg, chat), nil
	}
	channelID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || channelID < 0 {
		return 0, errors.Errorf("invalid topic id %q", arg)
	}
	return channelID, nil
}

func (r *Reactor) restrictCommand(ctx context.Context, msg *api.Message, chat *api.Chat, lang string) error {
	channelID, err := targetChannel(msg, chat)
	if err != nil {
		return err
	}
	if err := r.registry.Add(ctx, chat.ID, channelID); err != nil {
		return errors.WithMessage(err, "cant restrict")
	}
	r.reply(msg, chat, fmt.Sprintf(
		i18n.Get("Restricted topic #%d (photo-only, %d text messages per day).", lang),
		channelID, quota.DailyLimit,
	))
	return nil
}

func (r *Reactor) unrestrictCommand(ctx context.Context, msg *api.Message, chat *api.Chat, lang string) error {
	channelID, err := targetChannel(msg, chat)
	if err != nil {
		return err
	}
	if err := r.registry.Remove(ctx, chat.ID, channelID); err != nil {
		return errors.WithMessage(err, "cant unrestrict")
	}
	r.reply(msg, chat, fmt.Sprintf(i18n.Get("Unrestricted topic #%d.", lang), channelID))
	return nil
}

func (r *Reactor) restrictedCommand(_ context.Context, msg *api.Message, chat *api.Chat, lang string) error {
	channels := r.registry.List(chat.ID)
	if len(channels) == 0 {
		r.reply(msg, chat, i18n.Get("No restricted topics in this chat.", lang))
		return nil
	}
	names := make([]string, 0, len(channels))
	for _, channelID := range channels {
		names = append(names, "#"+strconv.FormatInt(channelID, 10))
	}
	r.reply(msg, chat, fmt.Sprintf(i18n.Get("Restricted topics: %s", lang), strings.Join(names, ", ")))
	return nil
}

func (r *Reactor) deletionsCommand(ctx context.Context, msg *api.Message, chat *api.Chat, lang string) error {
	limit, err := parseLimit(msg.CommandArguments())
	if err != nil {
		return err
	}
	entries, err := r.audit.FetchRecent(ctx, chat.ID, limit)
	if err != nil {
		return errors.WithMessage(err, "cant fetch deletions")
	}
	if len(entries) == 0 {
		r.reply(msg, chat, i18n.Get("No deletions logged yet.", lang))
		return nil
	}

	lines := renderDeletions(entries, time.Local, i18n.Get("(no text)", lang))
	for _, chunk := range chunkLines(lines, ReplyChunkSize) {
		r.reply(msg, chat, chunk)
	}
	return nil
}

// parseLimit reads the optional /deletions argument and clamps it to [1, audit.MaxFetchLimit].
func parseLimit(args string) (int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return DefaultDeletionsLimit, nil
	}
	limit, err := strconv.Atoi(strings.Fields(args)[0])
	if err != nil {
		return 0, errors.Errorf("invalid limit %q", args)
	}
	return audit.ClampLimit(limit), nil
}

func renderDeletions(entries []*db.DeletionLogEntry, loc *time.Location, noText string) []string {
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		excerpt := entry.Excerpt
		if excerpt == "" {
			excerpt = noText
		}
		lines = append(lines, tool.ExecTemplate(deletionLineTemplate, map[string]any{
			"when":    time.Unix(entry.TS, 0).In(loc).Format("2006-01-02 15:04"),
			"channel": entry.ChannelID,
			"user_id": entry.UserID,
			"excerpt": excerpt,
		}))
	}
	return lines
}

// chunkLines joins lines with newlines into chunks of at most size runes.
// A line longer than size is split across chunks. Sizes below 1 are treated as 1.
func chunkLines(lines []string, size int) []string {
	if size < 1 {
		size = 1
	}
	var (
		chunks  []string
		current strings.Builder
		runes   int
	)
	flush := func() {
		if runes > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			runes = 0
		}
	}

	for _, line := range lines {
		for utf8.RuneCountInString(line) > size {
			flush()
			cut := runeOffset(line, size)
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		lineRunes := utf8.RuneCountInString(line)
		sep := 0
		if runes > 0 {
			sep = 1
		}
		if runes+sep+lineRunes > size {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
		runes += sep + lineRunes
	}
	flush()
	return chunks
}

func runeOffset(s string, n int) int {
	i := 0
	for offset := range s {
		if i == n {
			return offset
		}
		i++
	}
	return len(s)
}

func (r *Reactor) reply(msg *api.Message, chat *api.Chat, text string) {
	responseMsg := api.NewMessage(chat.ID, text)
	responseMsg.ReplyParameters.AllowSendingWithoutReply = true
	responseMsg.ReplyParameters.MessageID = msg.MessageID
	responseMsg.ReplyParameters.ChatID = chat.ID
	if chat.IsForum {
		responseMsg.MessageThreadID = msg.MessageThreadID
	}
	responseMsg.DisableNotification = true
	if _, err := r.api.Send(responseMsg); err != nil {
		r.getLogEntry().WithError(err).WithField("chat_id", chat.ID).Warn("failed to send reply")
	}
}
