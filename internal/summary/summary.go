// Package summary builds the summarization requests sent to the language
// model: a recap of a chat conversation and a digest of a single long message.
package summary

import (
	"github.com/derogab/summarygram/internal/llm"
	"github.com/derogab/summarygram/internal/store"
)

// ConversationRequest returns the system instructions followed by one user
// message per history entry, formatted "@author: content", in history order.
func ConversationRequest(entries []store.Entry) []llm.Message {
	messages := make([]llm.Message, 0, len(conversationInstructions)+len(entries))
	messages = appendSystem(messages, conversationInstructions)
	for _, e := range entries {
		messages = append(messages, llm.Message{
			Role:    llm.RoleUser,
			Content: "@" + e.Author + ": " + e.Content,
		})
	}
	return messages
}

// DigestRequest returns the system instructions followed by the text as the
// only user message.
func DigestRequest(text string) []llm.Message {
	messages := make([]llm.Message, 0, len(digestInstructions)+1)
	messages = appendSystem(messages, digestInstructions)
	return append(messages, llm.Message{Role: llm.RoleUser, Content: text})
}

// FormatDigest prefixes a digest with the marker separating it from the quoted message.
func FormatDigest(prefix, text string) string {
	return prefix + "\n\n" + text
}

func appendSystem(messages []llm.Message, instructions []string) []llm.Message {
	for _, in := range instructions {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: in})
	}
	return messages
}
