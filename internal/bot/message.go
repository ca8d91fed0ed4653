package bot

import (
	"path"
	"strings"

	api "github.com/OvyFlash/telegram-bot-api"
)

type MessageType string

const (
	MessageTypeText      MessageType = "text"
	MessageTypeAnimation MessageType = "animation"
	MessageTypeAudio     MessageType = "audio"
	MessageTypeDocument  MessageType = "document"
	MessageTypePhoto     MessageType = "photo"
	MessageTypeSticker   MessageType = "sticker"
	MessageTypeVideo     MessageType = "video"
	MessageTypeVideoNote MessageType = "video_note"
	MessageTypeVoice     MessageType = "voice"
	MessageTypeOther     MessageType = "other"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".tiff": {},
}

func GetMessageType(msg *api.Message) MessageType {
	switch {
	case msg.Animation != nil:
		return MessageTypeAnimation
	case msg.Audio != nil:
		return MessageTypeAudio
	case msg.Document != nil:
		return MessageTypeDocument
	case len(msg.Photo) > 0:
		return MessageTypePhoto
	case msg.Sticker != nil:
		return MessageTypeSticker
	case msg.Video != nil:
		return MessageTypeVideo
	case msg.VideoNote != nil:
		return MessageTypeVideoNote
	case msg.Voice != nil:
		return MessageTypeVoice
	case msg.Text != "":
		return MessageTypeText
	default:
		return MessageTypeOther
	}
}

// HasImageOrSticker reports whether msg carries a photo, a sticker, or an image file.
func HasImageOrSticker(msg *api.Message) bool {
	if msg == nil {
		return false
	}
	if len(msg.Photo) > 0 || msg.Sticker != nil {
		return true
	}
	if msg.Document != nil && IsImageFile(msg.Document.MimeType, msg.Document.FileName) {
		return true
	}
	if msg.Animation != nil && IsImageFile(msg.Animation.MimeType, msg.Animation.FileName) {
		return true
	}
	return false
}

// IsImageFile matches either an image/* MIME type or a known image extension.
func IsImageFile(mimeType, fileName string) bool {
	if strings.HasPrefix(strings.ToLower(mimeType), "image/") {
		return true
	}
	_, ok := imageExtensions[strings.ToLower(path.Ext(fileName))]
	return ok
}

// MessageText returns the text body or, for media, the caption.
func MessageText(msg *api.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// IsServiceMessage reports chat bookkeeping messages that no member authored as content.
func IsServiceMessage(msg *api.Message) bool {
	return len(msg.NewChatMembers) > 0 ||
		msg.LeftChatMember != nil ||
		msg.NewChatTitle != "" ||
		len(msg.NewChatPhoto) > 0 ||
		msg.DeleteChatPhoto ||
		msg.GroupChatCreated ||
		msg.SuperGroupChatCreated ||
		msg.PinnedMessage != nil ||
		msg.ForumTopicCreated != nil ||
		msg.ForumTopicEdited != nil ||
		msg.ForumTopicClosed != nil ||
		msg.ForumTopicReopened != nil
}
