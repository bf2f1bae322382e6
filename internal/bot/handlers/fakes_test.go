package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/derogab/summarygram/internal/config"
	"github.com/derogab/summarygram/internal/llm"
	"github.com/derogab/summarygram/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Summary: config.SummaryConfig{
			Command:        config.DefaultSummaryCommand,
			MsgLengthLimit: config.DefaultMsgLengthLimit,
			TLDRPrefix:     config.DefaultTLDRPrefix,
		},
		Transcription: config.TranscriptionConfig{Language: config.DefaultTranscriptionLanguage},
		Messages: config.MessagesConfig{
			Welcome: "welcome to @botname",
			Help:    "use /summary",
		},
	}
}

type appendCall struct {
	chatID int64
	entry  store.Entry
}

// recordingStore wraps a MemoryStore and counts every call.
type recordingStore struct {
	*store.MemoryStore

	mu        sync.Mutex
	calls     int
	appends   []appendCall
	appendErr error
	listErr   error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemoryStore: store.NewMemoryStore(config.DefaultStoreTTL)}
}

func (s *recordingStore) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *recordingStore) Append(ctx context.Context, chatID int64, entry store.Entry) error {
	s.count()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.mu.Lock()
	s.appends = append(s.appends, appendCall{chatID: chatID, entry: entry})
	s.mu.Unlock()
	return s.MemoryStore.Append(ctx, chatID, entry)
}

func (s *recordingStore) List(ctx context.Context, chatID int64) ([]store.Entry, error) {
	s.count()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.MemoryStore.List(ctx, chatID)
}

func (s *recordingStore) SetValue(ctx context.Context, key, value string) error {
	s.count()
	return s.MemoryStore.SetValue(ctx, key, value)
}

func (s *recordingStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	s.count()
	return s.MemoryStore.GetValue(ctx, key)
}

func (s *recordingStore) DeleteValue(ctx context.Context, key string) error {
	s.count()
	return s.MemoryStore.DeleteValue(ctx, key)
}

// seed appends without counting.
func (s *recordingStore) seed(chatID int64, entries ...store.Entry) {
	for _, e := range entries {
		_ = s.MemoryStore.Append(context.Background(), chatID, e)
	}
}

type fakeSummarizer struct {
	mu       sync.Mutex
	requests [][]llm.Message
	reply    string
	err      error
}

func (f *fakeSummarizer) Name() string { return "fake" }

func (f *fakeSummarizer) Generate(_ context.Context, messages []llm.Message) (llm.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, messages)
	if f.err != nil {
		return llm.Message{}, f.err
	}
	return llm.Message{Role: llm.RoleAssistant, Content: f.reply}, nil
}

type fakeTranscriber struct {
	calls int
	opts  llm.TranscribeOptions
	text  string
	err   error
}

func (f *fakeTranscriber) Name() string { return "fake" }

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, opts llm.TranscribeOptions) (string, error) {
	f.calls++
	f.opts = opts
	return f.text, f.err
}

type fakeMessenger struct {
	mu          sync.Mutex
	sent        []OutgoingMessage
	typing      []int64
	downloads   []string
	typingErr   error
	sendErr     error
	downloadErr error
}

func (m *fakeMessenger) SendText(_ context.Context, msg OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMessenger) SendTyping(_ context.Context, chatID int64, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.typing = append(m.typing, chatID)
	return m.typingErr
}

func (m *fakeMessenger) DownloadFile(_ context.Context, fileID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, fileID)
	if m.downloadErr != nil {
		return nil, m.downloadErr
	}
	return []byte("OggS"), nil
}

var errBackend = errors.New("backend unavailable")

type fixture struct {
	store       *recordingStore
	summarizer  *fakeSummarizer
	transcriber *fakeTranscriber
	messenger   *fakeMessenger
	deps        HandlerDeps
}

func newFixture(mutate func(cfg *config.Config)) *fixture {
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	f := &fixture{
		store:       newRecordingStore(),
		summarizer:  &fakeSummarizer{reply: "summary text"},
		transcriber: &fakeTranscriber{},
		messenger:   &fakeMessenger{},
	}
	f.deps = HandlerDeps{
		Logger:      discardLogger(),
		Config:      cfg,
		Store:       f.store,
		Summarizer:  f.summarizer,
		Transcriber: f.transcriber,
		Messenger:   f.messenger,
	}
	return f
}
