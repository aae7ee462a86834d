package telegram

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Update is one getUpdates entry. Only message kinds reelpost reads are
// decoded.
type Update struct {
	UpdateID    int64    `json:"update_id"`
	Message     *Message `json:"message,omitempty"`
	ChannelPost *Message `json:"channel_post,omitempty"`
}

// Post returns the carried message, preferring a channel post.
func (u Update) Post() *Message {
	if u.ChannelPost != nil {
		return u.ChannelPost
	}
	return u.Message
}

// Message is a chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Date      int64  `json:"date"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`
	Video     *File  `json:"video,omitempty"`
	Document  *File  `json:"document,omitempty"`
}

// Media returns the video, else the document, else nil.
func (m *Message) Media() *File {
	if m == nil {
		return nil
	}
	if m.Video != nil {
		return m.Video
	}
	return m.Document
}

// Chat identifies a chat or channel.
type Chat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title,omitempty"`
	Username string `json:"username,omitempty"`
}

// Matches reports whether ref names this chat, either by numeric id or by
// @username.
func (c Chat) Matches(ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return false
	}
	if fmt.Sprint(c.ID) == ref {
		return true
	}
	return c.Username != "" && strings.EqualFold(c.Username, strings.TrimPrefix(ref, "@"))
}

// File describes an uploaded video or document.
type File struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileName     string `json:"file_name,omitempty"`
	MimeType     string `json:"mime_type,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
}

// User is the bot identity returned by getMe.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

type apiResponse struct {
	OK          bool                `json:"ok"`
	Result      json.RawMessage     `json:"result"`
	ErrorCode   int                 `json:"error_code"`
	Description string              `json:"description"`
	Parameters  *responseParameters `json:"parameters,omitempty"`
}

type responseParameters struct {
	RetryAfter      int   `json:"retry_after"`
	MigrateToChatID int64 `json:"migrate_to_chat_id"`
}
