// Copyright 2024-2026 Aiku AI

package bot

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"

	"github.com/aiku/spoilerguard/pkg/store"
)

// Options configures a Bot.
type Options struct {
	Token       string
	PollTimeout time.Duration
	Store       *store.Store
	Log         zerolog.Logger
}

// Bot wires the Telegram transport to the command router, the message
// pipeline, and the admin sync service. Telegram delivers updates for
// independent chats without ordering guarantees; all shared state lives in
// the store, which serializes mutations itself.
type Bot struct {
	tb       *tele.Bot
	store    *store.Store
	router   *Router
	pipeline *Pipeline
	sync     *AdminSync
	log      zerolog.Logger
}

// New builds the bot and registers a handler for every entry in the
// router's dispatch table, plus the plain-text fallback and the
// membership-change hook.
func New(opts Options) (*Bot, error) {
	b := &Bot{
		store: opts.Store,
		log:   opts.Log.With().Str("component", "bot").Logger(),
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:   opts.Token,
		Poller:  &tele.LongPoller{Timeout: opts.PollTimeout},
		OnError: b.onError,
	})
	if err != nil {
		return nil, err
	}
	b.tb = tb

	gate := NewGate(opts.Store)
	b.sync = NewAdminSync(opts.Store, telebotLister{tb: tb}, b.log)
	b.router = NewRouter(opts.Store, gate, b.sync, b.log)
	b.pipeline = NewPipeline(opts.Store, telebotMessenger{tb: tb}, b.log)

	for _, name := range b.router.Commands() {
		tb.Handle("/"+name, func(c tele.Context) error {
			b.handleCommand(name, c)
			return nil
		})
	}
	tb.Handle(tele.OnText, func(c tele.Context) error {
		b.handleText(c)
		return nil
	})
	tb.Handle(tele.OnMyChatMember, func(c tele.Context) error {
		b.handleMembershipUpdate(c)
		return nil
	})

	return b, nil
}

// Start begins long polling and blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info().Str("username", b.tb.Me.Username).Msg("Starting long polling")
	b.tb.Start()
}

// Stop terminates the poll loop.
func (b *Bot) Stop() {
	b.tb.Stop()
}

// recoverEvent contains a panic to the one update being handled so the
// dispatch loop continues with the next update.
func (b *Bot) recoverEvent(event string) {
	if rec := recover(); rec != nil {
		b.log.Error().
			Interface("panic", rec).
			Str("event", event).
			Msg("Recovered from panic while handling update")
	}
}

// isConflict reports whether err is the platform's HTTP 409 response,
// returned when another process is consuming updates with the same token.
func isConflict(err error) bool {
	var apiErr *tele.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

// onError receives handler and poller errors from the transport. A
// duplicate-instance conflict is fatal: two live instances would race each
// other on deletions and redactions.
func (b *Bot) onError(err error, c tele.Context) {
	if isConflict(err) {
		b.log.Fatal().Err(err).Msg("Bot token is already in use by another running instance")
	}

	evt := b.log.Error().Err(err)
	if c != nil && c.Chat() != nil {
		evt = evt.Int64("chat_id", c.Chat().ID)
	}
	evt.Msg("Transport error")
}

func (b *Bot) handleCommand(name string, c tele.Context) {
	defer b.recoverEvent("command /" + name)

	msg := c.Message()
	if msg == nil || msg.Sender == nil || msg.Chat == nil {
		return
	}
	req := Request{
		ChatID:   msg.Chat.ID,
		ThreadID: msg.ThreadID,
		SenderID: msg.Sender.ID,
		Args:     c.Args(),
	}
	reply := func(text string, mode ParseMode) error {
		return b.send(msg.Chat.ID, msg.ThreadID, text, mode)
	}
	b.router.Dispatch(name, req, reply)
}

func (b *Bot) handleText(c tele.Context) {
	defer b.recoverEvent("text message")

	msg := c.Message()
	if msg == nil || msg.Sender == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	b.pipeline.Process(Inbound{
		ChatID:    msg.Chat.ID,
		ThreadID:  msg.ThreadID,
		MessageID: msg.ID,
		SenderID:  msg.Sender.ID,
		Username:  msg.Sender.Username,
		FirstName: msg.Sender.FirstName,
		Text:      msg.Text,
	})
}

// handleMembershipUpdate triggers an admin sync when the bot itself is
// promoted to administrator in a chat, so the chat's admins can manage the
// bot without an explicit /sync_admins.
func (b *Bot) handleMembershipUpdate(c tele.Context) {
	defer b.recoverEvent("membership update")

	upd := c.ChatMember()
	if upd == nil || upd.NewChatMember == nil || upd.Chat == nil {
		return
	}
	role := upd.NewChatMember.Role
	if role != tele.Administrator && role != tele.Creator {
		return
	}

	b.log.Info().Int64("chat_id", upd.Chat.ID).Msg("Promoted to administrator, syncing chat admins")
	added, err := b.sync.Sync(upd.Chat.ID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", upd.Chat.ID).Msg("Admin sync after promotion failed")
		return
	}
	b.log.Info().Int64("chat_id", upd.Chat.ID).Int("added", len(added)).Msg("Admin sync after promotion complete")
}

// send posts text into a chat thread with the requested formatting flavor.
func (b *Bot) send(chatID int64, threadID int, text string, mode ParseMode) error {
	return telebotMessenger{tb: b.tb}.Send(chatID, threadID, text, mode)
}

// telebotMessenger adapts the telebot API to the pipeline's Messenger
// interface.
type telebotMessenger struct {
	tb *tele.Bot
}

func (m telebotMessenger) Delete(chatID int64, messageID int) error {
	return m.tb.Delete(&tele.StoredMessage{
		MessageID: strconv.Itoa(messageID),
		ChatID:    chatID,
	})
}

func (m telebotMessenger) Send(chatID int64, threadID int, text string, mode ParseMode) error {
	opts := &tele.SendOptions{ThreadID: threadID}
	switch mode {
	case ModeMarkdown:
		opts.ParseMode = tele.ModeMarkdown
	case ModeSpoiler:
		opts.ParseMode = tele.ModeMarkdownV2
	}
	_, err := m.tb.Send(&tele.Chat{ID: chatID}, text, opts)
	return err
}

// telebotLister adapts the telebot API to the AdminLister interface.
type telebotLister struct {
	tb *tele.Bot
}

func (l telebotLister) ChatAdmins(chatID int64) ([]ChatAdmin, error) {
	members, err := l.tb.AdminsOf(&tele.Chat{ID: chatID})
	if err != nil {
		return nil, err
	}
	out := make([]ChatAdmin, 0, len(members))
	for _, m := range members {
		if m.User == nil {
			continue
		}
		out = append(out, ChatAdmin{
			UserID:   m.User.ID,
			Username: m.User.Username,
			IsBot:    m.User.IsBot,
		})
	}
	return out, nil
}
