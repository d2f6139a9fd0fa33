// Copyright 2024-2026 Aiku AI

package bot

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/aiku/spoilerguard/pkg/redact"
	"github.com/aiku/spoilerguard/pkg/store"
)

// ParseMode selects the formatting flavor for an outbound message.
type ParseMode int

const (
	// ModePlain sends text without any formatting markup.
	ModePlain ParseMode = iota
	// ModeMarkdown sends legacy-markdown formatted text, used for command
	// replies with backtick-quoted values.
	ModeMarkdown
	// ModeSpoiler sends MarkdownV2 text, required for ||spoiler|| markers.
	ModeSpoiler
)

// Messenger is the outbound slice of the chat platform the pipeline needs.
// Both operations are fallible and must not hang beyond the transport's own
// timeout policy. Tests inject a mock.
type Messenger interface {
	// Delete removes a message by ID from a chat.
	Delete(chatID int64, messageID int) error
	// Send posts text into a chat, addressed to the given thread/topic.
	// A zero threadID targets the chat's main conversation.
	Send(chatID int64, threadID int, text string, mode ParseMode) error
}

// Inbound is one text message to consider for redaction.
type Inbound struct {
	ChatID    int64
	ThreadID  int
	MessageID int
	SenderID  int64
	Username  string
	FirstName string
	Text      string
}

// Result is the terminal state of one pipeline run.
type Result int

const (
	// ResultSkipped means the message needed no redaction: chat disabled,
	// no keywords configured, or nothing matched.
	ResultSkipped Result = iota
	// ResultSucceeded means the original was deleted and the redacted copy
	// posted in its place.
	ResultSucceeded
	// ResultDegraded means deletion or reposting failed and a single
	// warning notice was posted instead. Whether the original still exists
	// depends on which step failed; the pipeline does not retry or revert.
	ResultDegraded
)

const permissionWarning = "⚠️ I need permission to delete messages and repost them with spoiler tags. Grant me admin rights in this chat."

// Pipeline orchestrates the per-message redaction flow: gate check, keyword
// matching, rewriting, and delete-and-repost with a degraded fallback.
// Messages are only ever matched against their own chat's keywords.
type Pipeline struct {
	store     *store.Store
	messenger Messenger
	log       zerolog.Logger
}

// NewPipeline wires the pipeline to the configuration store and the
// outbound transport.
func NewPipeline(st *store.Store, messenger Messenger, log zerolog.Logger) *Pipeline {
	return &Pipeline{store: st, messenger: messenger, log: log}
}

// Process runs one message through the pipeline and returns its terminal
// state. Process never panics its caller's dispatch loop: all failures end
// in ResultDegraded or are logged locally.
func (p *Pipeline) Process(msg Inbound) Result {
	if !p.store.IsEnabled(msg.ChatID) {
		return ResultSkipped
	}
	keywords := p.store.ChatKeywords(msg.ChatID)
	if len(keywords) == 0 {
		return ResultSkipped
	}

	caseSensitive := p.store.CaseSensitive()
	found := redact.FindMatches(msg.Text, keywords, caseSensitive)
	if len(found) == 0 {
		return ResultSkipped
	}

	p.log.Info().
		Int64("chat_id", msg.ChatID).
		Int64("sender_id", msg.SenderID).
		Strs("keywords", found).
		Msg("Found spoiler keywords in message")

	redacted := redact.Redact(msg.Text, found, caseSensitive)
	repost := attribution(msg) + ": " + redacted

	mode := ModePlain
	if strings.Contains(redacted, redact.Marker) {
		// Spoiler markers only render under MarkdownV2, and the rest of
		// the text goes out unescaped. A message whose text contains
		// reserved V2 characters can be rejected by the platform and
		// lands in the degraded path after the original is already gone.
		mode = ModeSpoiler
	}

	if err := p.messenger.Delete(msg.ChatID, msg.MessageID); err != nil {
		p.log.Warn().Err(err).
			Int64("chat_id", msg.ChatID).
			Int("message_id", msg.MessageID).
			Msg("Failed to delete original message")
		return p.degrade(msg)
	}
	if err := p.messenger.Send(msg.ChatID, msg.ThreadID, repost, mode); err != nil {
		p.log.Warn().Err(err).
			Int64("chat_id", msg.ChatID).
			Msg("Failed to post redacted message")
		return p.degrade(msg)
	}

	p.log.Info().
		Int64("chat_id", msg.ChatID).
		Strs("keywords", found).
		Msg("Replaced message with redacted copy")
	return ResultSucceeded
}

// degrade posts a single warning notice into the originating thread. The
// original message is left as-is: it may or may not have been deleted
// already, and the warning deliberately does not claim either way.
func (p *Pipeline) degrade(msg Inbound) Result {
	if err := p.messenger.Send(msg.ChatID, msg.ThreadID, permissionWarning, ModePlain); err != nil {
		p.log.Error().Err(err).
			Int64("chat_id", msg.ChatID).
			Msg("Failed to post permission warning")
	}
	return ResultDegraded
}

// attribution returns the sender's handle when present, else their display
// name, for the repost prefix.
func attribution(msg Inbound) string {
	if msg.Username != "" {
		return "@" + msg.Username
	}
	return msg.FirstName
}
