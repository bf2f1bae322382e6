package summary_test

import (
	"strings"
	"testing"

	"github.com/derogab/summarygram/internal/llm"
	"github.com/derogab/summarygram/internal/store"
	"github.com/derogab/summarygram/internal/summary"
)

// userMessages returns the user-role messages after asserting that every
// system message precedes them.
func userMessages(t *testing.T, messages []llm.Message) []llm.Message {
	t.Helper()

	var users []llm.Message
	for i, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			if len(users) > 0 {
				t.Fatalf("system message at %d follows user messages", i)
			}
		case llm.RoleUser:
			users = append(users, m)
		default:
			t.Fatalf("unexpected role %q at %d", m.Role, i)
		}
	}
	if len(users) == len(messages) {
		t.Fatal("request has no system instructions")
	}
	return users
}

func TestConversationRequest(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		entries  []store.Entry
		expected []string
	}{
		{
			name:     "empty history still has instructions",
			entries:  nil,
			expected: nil,
		},
		{
			name:     "single entry",
			entries:  []store.Entry{{Author: "a", Content: "hello"}},
			expected: []string{"@a: hello"},
		},
		{
			name: "order and numeric authors preserved",
			entries: []store.Entry{
				{Author: "alice", Content: "first"},
				{Author: "123456", Content: "second"},
				{Author: "alice", Content: "x###y"},
			},
			expected: []string{"@alice: first", "@123456: second", "@alice: x###y"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			users := userMessages(t, summary.ConversationRequest(tc.entries))
			if len(users) != len(tc.expected) {
				t.Fatalf("got %d user messages, want %d", len(users), len(tc.expected))
			}
			for i, want := range tc.expected {
				if users[i].Content != want {
					t.Errorf("user message %d = %q, want %q", i, users[i].Content, want)
				}
			}
		})
	}
}

func TestDigestRequest(t *testing.T) {
	t.Parallel()

	body := "a very long message\nwith two lines"
	messages := summary.DigestRequest(body)
	users := userMessages(t, messages)
	if len(users) != 1 || users[0].Content != body {
		t.Fatalf("user messages = %+v, want the literal body", users)
	}

	digestSystem := systemText(messages)
	if digestSystem == systemText(summary.ConversationRequest(nil)) {
		t.Error("digest and conversation requests share the same instructions")
	}
}

func systemText(messages []llm.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			sb.WriteString(m.Content)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func TestFormatDigest(t *testing.T) {
	t.Parallel()

	if got := summary.FormatDigest("TL;DR", "short"); got != "TL;DR\n\nshort" {
		t.Errorf("FormatDigest = %q", got)
	}
}
