package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/derogab/summarygram/internal/llm"
	"github.com/derogab/summarygram/internal/store"
	"github.com/derogab/summarygram/internal/summary"
)

var (
	// ErrMissingChatContext is returned for events without a chat.
	ErrMissingChatContext = errors.New("event has no chat context")
	// ErrMissingAuthor is returned for events with neither username nor sender id.
	ErrMissingAuthor = errors.New("event has no identifiable author")
)

// Router applies the message policy to each inbound event: it answers the
// summary command, records everything else as chat history and condenses
// messages that exceed the length limit.
type Router struct {
	deps HandlerDeps
	log  *slog.Logger
}

// NewRouter creates a Router over the given dependencies.
func NewRouter(deps HandlerDeps) *Router {
	return &Router{
		deps: deps,
		log:  deps.Logger.With("component", "router"),
	}
}

// Route handles one event. Events from chats outside the allow-list, events
// without a resolvable body and /start or /help are dropped without error.
func (r *Router) Route(ctx context.Context, ev Event) error {
	if ev.ChatID == 0 {
		return ErrMissingChatContext
	}

	author := ev.Author()
	if author == "" {
		return ErrMissingAuthor
	}

	if !r.deps.Config.IsChatAllowed(ev.ChatID) {
		r.log.DebugContext(ctx, "Dropping event from chat outside allow-list", "chat_id", ev.ChatID)
		return nil
	}

	if ev.BusinessConnectionID != "" {
		r.bindBusinessConnection(ctx, ev.ChatID, ev.BusinessConnectionID)
	}

	if ev.Text == "" && ev.Audio != nil {
		ev.Text = r.transcribe(ctx, ev)
	}

	body := resolveBody(ev)
	if body == "" {
		r.log.DebugContext(ctx, "Dropping event without text, caption or file name", "chat_id", ev.ChatID, "message_id", ev.MessageID)
		return nil
	}

	if strings.HasPrefix(body, r.deps.Config.Summary.Command) {
		return r.handleSummaryCommand(ctx, ev)
	}
	if isOwnCommand(r.deps.Config, body) {
		r.log.DebugContext(ctx, "Not storing command with its own handler", "chat_id", ev.ChatID, "message_id", ev.MessageID)
		return nil
	}

	if err := r.deps.Store.Append(ctx, ev.ChatID, store.Entry{Author: author, Content: body}); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	if utf8.RuneCountInString(body) > r.deps.Config.Summary.MsgLengthLimit {
		// The message is already stored; a failed digest only costs the reply.
		if err := r.sendDigest(ctx, ev, body); err != nil {
			r.log.ErrorContext(ctx, "Failed to digest long message",
				"chat_id", ev.ChatID,
				"message_id", ev.MessageID,
				"error", err)
		}
	}
	return nil
}

// resolveBody picks the first non-empty of text, caption and file name.
func resolveBody(ev Event) string {
	switch {
	case ev.Text != "":
		return ev.Text
	case ev.Caption != "":
		return ev.Caption
	default:
		return ev.FileName
	}
}

func (r *Router) handleSummaryCommand(ctx context.Context, ev Event) error {
	log := r.log.With("chat_id", ev.ChatID, "message_id", ev.MessageID)

	if err := r.deps.Messenger.SendTyping(ctx, ev.ChatID, ev.BusinessConnectionID); err != nil {
		log.DebugContext(ctx, "Failed to send typing indicator", "error", err)
	}

	entries, err := r.deps.Store.List(ctx, ev.ChatID)
	if err != nil {
		return fmt.Errorf("failed to load chat history: %w", err)
	}
	log.InfoContext(ctx, "Summarizing chat history", "entries", len(entries))

	reply, err := r.deps.Summarizer.Generate(ctx, summary.ConversationRequest(entries))
	if err != nil {
		return fmt.Errorf("failed to summarize chat: %w", err)
	}
	if strings.TrimSpace(reply.Content) == "" {
		log.WarnContext(ctx, "Summarizer returned an empty summary, nothing to send")
		return nil
	}

	if err := r.deps.Messenger.SendText(ctx, OutgoingMessage{
		ChatID:               ev.ChatID,
		Text:                 reply.Content,
		ReplyTo:              ev.MessageID,
		BusinessConnectionID: ev.BusinessConnectionID,
	}); err != nil {
		return fmt.Errorf("failed to send summary: %w", err)
	}
	return nil
}

func (r *Router) sendDigest(ctx context.Context, ev Event, body string) error {
	reply, err := r.deps.Summarizer.Generate(ctx, summary.DigestRequest(body))
	if err != nil {
		return err
	}
	if strings.TrimSpace(reply.Content) == "" {
		r.log.WarnContext(ctx, "Summarizer returned an empty digest", "chat_id", ev.ChatID)
		return nil
	}

	return r.deps.Messenger.SendText(ctx, OutgoingMessage{
		ChatID:               ev.ChatID,
		Text:                 summary.FormatDigest(r.deps.Config.Summary.TLDRPrefix, reply.Content),
		ReplyTo:              ev.MessageID,
		BusinessConnectionID: ev.BusinessConnectionID,
	})
}

// transcribe returns the recognized text of the audio attachment, or an empty
// string when transcription is unavailable or fails.
func (r *Router) transcribe(ctx context.Context, ev Event) string {
	if r.deps.Transcriber == nil {
		return ""
	}
	log := r.log.With("chat_id", ev.ChatID, "message_id", ev.MessageID)

	audio, err := r.deps.Messenger.DownloadFile(ctx, ev.Audio.FileID)
	if err != nil {
		log.WarnContext(ctx, "Failed to download audio attachment", "error", err)
		return ""
	}

	text, err := r.deps.Transcriber.Transcribe(ctx, audio, llm.TranscribeOptions{
		MIMEType:  ev.Audio.MIMEType,
		Language:  r.deps.Config.Transcription.Language,
		Translate: r.deps.Config.Transcription.Translate,
	})
	if err != nil {
		log.WarnContext(ctx, "Failed to transcribe audio attachment", "provider", r.deps.Transcriber.Name(), "error", err)
		return ""
	}
	log.DebugContext(ctx, "Transcribed audio attachment", "bytes", len(audio), "chars", utf8.RuneCountInString(text))
	return text
}

// bindBusinessConnection remembers the connection a business chat was last
// seen on, so unsolicited messages can be delivered later.
func (r *Router) bindBusinessConnection(ctx context.Context, chatID int64, connectionID string) {
	key := store.BusinessKey(chatID)
	current, ok, err := r.deps.Store.GetValue(ctx, key)
	if err == nil && ok && current == connectionID {
		return
	}
	if err := r.deps.Store.SetValue(ctx, key, connectionID); err != nil {
		r.log.WarnContext(ctx, "Failed to store business connection", "chat_id", chatID, "error", err)
	}
}
