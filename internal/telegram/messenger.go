package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
	"unicode/utf16"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/derogab/summarygram/internal/bot/handlers"
)

const (
	// MaxMessageLength is the Telegram limit for one text message, in UTF-16 code units.
	MaxMessageLength = 4096

	// maxDownloadSize matches the Bot API getFile limit.
	maxDownloadSize = 20 << 20

	defaultFileBaseURL = "https://api.telegram.org"
)

var errNotAttached = errors.New("telegram messenger is not attached to a bot")

// Messenger sends messages and downloads files through the Bot API.
// It implements handlers.Messenger.
type Messenger struct {
	bot         atomic.Pointer[bot.Bot]
	token       string
	timeout     time.Duration
	fileBaseURL string
	httpClient  *http.Client
	log         *slog.Logger
}

var _ handlers.Messenger = (*Messenger)(nil)

// NewMessenger creates a Messenger. The bot client is attached later with
// Attach because the update handlers that use the Messenger must be passed
// to the client at construction.
func NewMessenger(token string, timeout time.Duration, logger *slog.Logger) *Messenger {
	return &Messenger{
		token:       token,
		timeout:     timeout,
		fileBaseURL: defaultFileBaseURL,
		httpClient:  &http.Client{},
		log:         logger.With("component", "messenger"),
	}
}

// Attach sets the bot client used for every call.
func (m *Messenger) Attach(b *bot.Bot) {
	m.bot.Store(b)
}

func (m *Messenger) client() (*bot.Bot, error) {
	b := m.bot.Load()
	if b == nil {
		return nil, errNotAttached
	}
	return b, nil
}

// SendText sends msg, split into several messages when it exceeds the
// Telegram length limit. Only the first part is threaded.
func (m *Messenger) SendText(ctx context.Context, msg handlers.OutgoingMessage) error {
	b, err := m.client()
	if err != nil {
		return err
	}

	parts := SplitMessage(msg.Text, MaxMessageLength)
	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:               msg.ChatID,
			Text:                 part,
			BusinessConnectionID: msg.BusinessConnectionID,
		}
		if i == 0 && msg.ReplyTo != 0 {
			params.ReplyParameters = &models.ReplyParameters{
				MessageID:                msg.ReplyTo,
				AllowSendingWithoutReply: true,
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, m.timeout)
		_, err := b.SendMessage(sendCtx, params)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to send message part %d/%d: %w", i+1, len(parts), err)
		}
	}

	m.log.DebugContext(ctx, "Message sent", "chat_id", msg.ChatID, "parts", len(parts), "reply_to", msg.ReplyTo)
	return nil
}

// SendTyping shows the typing indicator in the chat.
func (m *Messenger) SendTyping(ctx context.Context, chatID int64, businessConnectionID string) error {
	b, err := m.client()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	_, err = b.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID:               chatID,
		Action:               models.ChatActionTyping,
		BusinessConnectionID: businessConnectionID,
	})
	if err != nil {
		return fmt.Errorf("failed to send typing action: %w", err)
	}
	return nil
}

// DownloadFile resolves the file path with getFile and fetches the content.
func (m *Messenger) DownloadFile(ctx context.Context, fileID string) (data []byte, err error) {
	if fileID == "" {
		return nil, errors.New("empty fileID provided")
	}
	b, err := m.client()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	fileObj, err := b.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	if fileObj.FilePath == "" {
		return nil, errors.New("empty file path returned from Telegram")
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", m.fileBaseURL, m.token, fileObj.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		// The URL embeds the token; report the file path only.
		return nil, fmt.Errorf("failed to download file %s: %w", fileObj.FilePath, errors.Unwrap(err))
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxDownloadSize)
	}
	return data, nil
}

// SplitMessage cuts text into parts of at most limit UTF-16 code units, the
// unit Telegram measures messages in, preferring to break after a newline,
// then after whitespace.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if limit <= 0 || utf16Len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for utf16Len(runes) > limit {
		cut := breakPoint(runes[:fitting(runes, limit)])
		part := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
		if part != "" {
			parts = append(parts, part)
		}
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}
	if rest := string(runes); strings.TrimSpace(rest) != "" {
		parts = append(parts, rest)
	}
	return parts
}

func utf16Len(runes []rune) int {
	n := 0
	for _, r := range runes {
		n += codeUnits(r)
	}
	return n
}

func codeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// fitting returns how many leading runes fit in limit code units, at least one.
func fitting(runes []rune, limit int) int {
	units := 0
	for i, r := range runes {
		units += codeUnits(r)
		if units > limit {
			return max(i, 1)
		}
	}
	return len(runes)
}

// breakPoint returns the length of the prefix of window to emit.
func breakPoint(window []rune) int {
	half := len(window) / 2
	for i := len(window) - 1; i >= half; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}
	for i := len(window) - 1; i >= half; i-- {
		if unicode.IsSpace(window[i]) {
			return i + 1
		}
	}
	return len(window)
}
