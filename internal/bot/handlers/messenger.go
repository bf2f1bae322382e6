package handlers

import "context"

// OutgoingMessage is a text message sent to a chat.
type OutgoingMessage struct {
	ChatID int64
	Text   string
	// ReplyTo threads the message under an existing one; zero sends it unsolicited.
	ReplyTo int
	// BusinessConnectionID sends on behalf of a connected business account.
	BusinessConnectionID string
}

// Messenger is the outbound side of the chat platform.
type Messenger interface {
	SendText(ctx context.Context, msg OutgoingMessage) error
	SendTyping(ctx context.Context, chatID int64, businessConnectionID string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}
