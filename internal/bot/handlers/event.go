package handlers

import (
	"strconv"
	"time"

	"github.com/go-telegram/bot/models"
)

// Audio references a voice note or audio file attached to a message.
type Audio struct {
	FileID   string
	MIMEType string
}

// Event is an inbound chat message reduced to the fields the router needs.
type Event struct {
	ChatID               int64
	SenderID             int64
	SenderUsername       string
	Text                 string
	Caption              string
	FileName             string
	Audio                *Audio
	MessageID            int
	Date                 time.Time
	BusinessConnectionID string
}

// EventFromMessage converts a Telegram message, regular or business, into an Event.
func EventFromMessage(msg *models.Message) Event {
	ev := Event{
		ChatID:               msg.Chat.ID,
		Text:                 msg.Text,
		Caption:              msg.Caption,
		MessageID:            msg.ID,
		BusinessConnectionID: msg.BusinessConnectionID,
	}
	if msg.Date > 0 {
		ev.Date = time.Unix(int64(msg.Date), 0)
	}
	if msg.From != nil {
		ev.SenderID = msg.From.ID
		ev.SenderUsername = msg.From.Username
	}
	if msg.Document != nil {
		ev.FileName = msg.Document.FileName
	}

	switch {
	case msg.Voice != nil:
		ev.Audio = &Audio{FileID: msg.Voice.FileID, MIMEType: msg.Voice.MimeType}
	case msg.Audio != nil:
		ev.Audio = &Audio{FileID: msg.Audio.FileID, MIMEType: msg.Audio.MimeType}
		if ev.FileName == "" {
			ev.FileName = msg.Audio.FileName
		}
	}
	return ev
}

// Author returns the history author of the event: the username when set,
// otherwise the numeric sender id.
func (e Event) Author() string {
	if e.SenderUsername != "" {
		return e.SenderUsername
	}
	if e.SenderID != 0 {
		return strconv.FormatInt(e.SenderID, 10)
	}
	return ""
}
