package bot

import (
	"testing"

	api "github.com/OvyFlash/telegram-bot-api"
)

func TestHasImageOrSticker(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		msg  *api.Message
		want bool
	}{
		{name: "nil message", msg: nil, want: false},
		{name: "plain text", msg: &api.Message{Text: "hi"}, want: false},
		{name: "photo", msg: &api.Message{Photo: []api.PhotoSize{{FileID: "p"}}}, want: true},
		{name: "photo with caption", msg: &api.Message{Photo: []api.PhotoSize{{FileID: "p"}}, Caption: "look"}, want: true},
		{name: "sticker", msg: &api.Message{Sticker: &api.Sticker{FileID: "s"}}, want: true},
		{name: "image document by mime", msg: &api.Message{Document: &api.Document{MimeType: "image/heic", FileName: "x"}}, want: true},
		{name: "image document by extension", msg: &api.Message{Document: &api.Document{MimeType: "application/octet-stream", FileName: "scan.TIFF"}}, want: true},
		{name: "pdf document", msg: &api.Message{Document: &api.Document{MimeType: "application/pdf", FileName: "doc.pdf"}}, want: false},
		{name: "gif animation", msg: &api.Message{Animation: &api.Animation{MimeType: "video/mp4", FileName: "cat.gif"}}, want: true},
		{name: "mp4 animation", msg: &api.Message{Animation: &api.Animation{MimeType: "video/mp4", FileName: "cat.mp4"}}, want: false},
		{name: "video", msg: &api.Message{Video: &api.Video{MimeType: "video/mp4", FileName: "clip.mp4"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := HasImageOrSticker(tt.msg); got != tt.want {
				t.Fatalf("HasImageOrSticker() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageText(t *testing.T) {
	t.Parallel()

	if got := MessageText(&api.Message{Text: "body", Caption: "caption"}); got != "body" {
		t.Fatalf("MessageText() = %q, want body", got)
	}
	if got := MessageText(&api.Message{Caption: "caption"}); got != "caption" {
		t.Fatalf("MessageText() = %q, want caption", got)
	}
	if got := MessageText(nil); got != "" {
		t.Fatalf("MessageText(nil) = %q, want empty", got)
	}
}

func TestGetMessageType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  *api.Message
		want MessageType
	}{
		{msg: &api.Message{Text: "hi"}, want: MessageTypeText},
		{msg: &api.Message{Photo: []api.PhotoSize{{FileID: "p"}}}, want: MessageTypePhoto},
		{msg: &api.Message{Voice: &api.Voice{FileID: "v"}}, want: MessageTypeVoice},
		{msg: &api.Message{}, want: MessageTypeOther},
	}
	for _, tt := range tests {
		if got := GetMessageType(tt.msg); got != tt.want {
			t.Fatalf("GetMessageType() = %q, want %q", got, tt.want)
		}
	}
}

func TestIsServiceMessage(t *testing.T) {
	t.Parallel()

	if !IsServiceMessage(&api.Message{NewChatMembers: []api.User{{ID: 1}}}) {
		t.Fatalf("join message must be a service message")
	}
	if !IsServiceMessage(&api.Message{LeftChatMember: &api.User{ID: 1}}) {
		t.Fatalf("leave message must be a service message")
	}
	if IsServiceMessage(&api.Message{Text: "hello"}) {
		t.Fatalf("text message must not be a service message")
	}
}
