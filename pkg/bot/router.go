// Copyright 2024-2026 Aiku AI

package bot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aiku/spoilerguard/pkg/store"
)

const (
	permissionDeniedReply = "❌ Only bot administrators can do that."
	addAdminDeniedReply   = "❌ Only existing administrators can add new admins."
)

const startReply = `🤖 *Spoiler Bot* is now active!

I automatically add spoiler tags to messages containing keywords configured for this chat.

*Commands:*
• /help - Show all commands
• /add_keyword <word> - Add a spoiler keyword for this chat
• /remove_keyword <word> - Remove a spoiler keyword
• /list_keywords - Show this chat's keywords
• /enable_chat - Enable spoiler detection here
• /disable_chat - Disable spoiler detection here

*Note:* I need admin permissions to delete and repost messages in group chats.`

const helpReply = `🔧 *Spoiler Bot Commands*

*Keyword Management:*
• /add_keyword <word> - Add a keyword that triggers spoiler tags in this chat
• /remove_keyword <word> - Remove a keyword from this chat
• /list_keywords - Show this chat's keywords
• /list_all_keywords - Show every chat's keywords (admins only)
• /toggle_case - Toggle case sensitivity

*Chat Management:*
• /enable_chat - Enable spoiler detection in this chat
• /disable_chat - Disable spoiler detection in this chat

*Admin Commands:*
• /add_admin <user_id> - Add a bot administrator
• /sync_admins - Import this chat's administrators

*How it works:*
1. Someone sends a message containing a spoiler keyword
2. I delete the original message
3. I repost it with spoiler tags: ||spoiler text||

*Example:*
If "endgame" is a keyword and someone writes
"I loved the endgame battle scene!", I repost it as
"I loved the ||endgame|| battle scene!"`

// Request is one parsed command invocation.
type Request struct {
	ChatID   int64
	ThreadID int
	SenderID int64
	Args     []string
}

// Responder delivers a reply into the originating chat and thread.
type Responder func(text string, mode ParseMode) error

// command is one entry in the dispatch table. A nil allowed func means the
// command is public.
type command struct {
	allowed func(int64) bool
	handler func(Request, Responder) error
	denied  string
}

// Router dispatches administrative commands through an explicit table built
// once at construction. Every command goes through the same wrapper: gate
// check first, then the handler; handler errors are logged and never
// propagate into the dispatch loop.
type Router struct {
	store    *store.Store
	gate     *Gate
	sync     *AdminSync
	log      zerolog.Logger
	commands map[string]command
}

// NewRouter builds the dispatch table.
func NewRouter(st *store.Store, gate *Gate, sync *AdminSync, log zerolog.Logger) *Router {
	r := &Router{store: st, gate: gate, sync: sync, log: log}
	r.commands = map[string]command{
		"start":             {handler: r.handleStart},
		"help":              {handler: r.handleHelp},
		"add_keyword":       {allowed: gate.CanManage, handler: r.handleAddKeyword},
		"remove_keyword":    {allowed: gate.CanManage, handler: r.handleRemoveKeyword},
		"list_keywords":     {handler: r.handleListKeywords},
		"list_all_keywords": {allowed: gate.CanManage, handler: r.handleListAllKeywords},
		"enable_chat":       {allowed: gate.CanManage, handler: r.handleEnableChat},
		"disable_chat":      {allowed: gate.CanManage, handler: r.handleDisableChat},
		"toggle_case":       {allowed: gate.CanManage, handler: r.handleToggleCase},
		"add_admin":         {allowed: gate.CanAddAdmin, handler: r.handleAddAdmin, denied: addAdminDeniedReply},
		"sync_admins":       {allowed: gate.CanManage, handler: r.handleSyncAdmins},
	}
	return r
}

// Commands returns the names of all registered commands.
func (r *Router) Commands() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the named command through the uniform gate and containment
// wrapper. Unknown names are ignored.
func (r *Router) Dispatch(name string, req Request, reply Responder) {
	cmd, ok := r.commands[name]
	if !ok {
		return
	}
	if cmd.allowed != nil && !cmd.allowed(req.SenderID) {
		denied := cmd.denied
		if denied == "" {
			denied = permissionDeniedReply
		}
		if err := reply(denied, ModePlain); err != nil {
			r.log.Warn().Err(err).Str("command", name).Msg("Failed to send permission-denied reply")
		}
		return
	}
	if err := cmd.handler(req, reply); err != nil {
		r.log.Error().Err(err).
			Str("command", name).
			Int64("chat_id", req.ChatID).
			Msg("Command handler failed")
	}
}

func (r *Router) handleStart(_ Request, reply Responder) error {
	return reply(startReply, ModeMarkdown)
}

func (r *Router) handleHelp(_ Request, reply Responder) error {
	return reply(helpReply, ModeMarkdown)
}

// joinedKeyword reassembles a multi-word keyword from argument tokens.
func joinedKeyword(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func (r *Router) handleAddKeyword(req Request, reply Responder) error {
	keyword := joinedKeyword(req.Args)
	if keyword == "" {
		return reply("❌ Please provide a keyword. Usage: `/add_keyword spoiler_word`", ModeMarkdown)
	}
	if !r.store.AddKeyword(req.ChatID, keyword) {
		return reply(fmt.Sprintf("❌ Keyword `%s` is already configured.", keyword), ModeMarkdown)
	}
	return reply(fmt.Sprintf("✅ Added keyword: `%s`", keyword), ModeMarkdown)
}

func (r *Router) handleRemoveKeyword(req Request, reply Responder) error {
	keyword := joinedKeyword(req.Args)
	if keyword == "" {
		return reply("❌ Please provide a keyword. Usage: `/remove_keyword spoiler_word`", ModeMarkdown)
	}
	if !r.store.RemoveKeyword(req.ChatID, keyword) {
		return reply(fmt.Sprintf("❌ Keyword `%s` not found.", keyword), ModeMarkdown)
	}
	return reply(fmt.Sprintf("✅ Removed keyword: `%s`", keyword), ModeMarkdown)
}

// caseInfo describes the active case policy for keyword listings.
func (r *Router) caseInfo() string {
	if r.store.CaseSensitive() {
		return "Case sensitive"
	}
	return "Case insensitive"
}

func (r *Router) handleListKeywords(req Request, reply Responder) error {
	keywords := r.store.ChatKeywords(req.ChatID)
	if len(keywords) == 0 {
		return reply("📝 No spoiler keywords configured for this chat.", ModePlain)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 *Spoiler Keywords* (%s):\n\n", r.caseInfo())
	for _, kw := range keywords {
		fmt.Fprintf(&sb, "• `%s`\n", kw)
	}
	return reply(sb.String(), ModeMarkdown)
}

func (r *Router) handleListAllKeywords(_ Request, reply Responder) error {
	all := r.store.AllKeywords()
	if len(all) == 0 {
		return reply("📝 No spoiler keywords configured in any chat.", ModePlain)
	}

	chatIDs := make([]int64, 0, len(all))
	for chatID := range all {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })

	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 *Spoiler Keywords by Chat* (%s):\n", r.caseInfo())
	for _, chatID := range chatIDs {
		fmt.Fprintf(&sb, "\n*Chat %d:*\n", chatID)
		for _, kw := range all[chatID] {
			fmt.Fprintf(&sb, "• `%s`\n", kw)
		}
	}
	return reply(sb.String(), ModeMarkdown)
}

func (r *Router) handleEnableChat(req Request, reply Responder) error {
	r.store.SetEnabled(req.ChatID, true)
	return reply("✅ Spoiler detection enabled in this chat.", ModePlain)
}

func (r *Router) handleDisableChat(req Request, reply Responder) error {
	r.store.SetEnabled(req.ChatID, false)
	return reply("✅ Spoiler detection disabled in this chat.", ModePlain)
}

func (r *Router) handleToggleCase(_ Request, reply Responder) error {
	if r.store.ToggleCaseSensitivity() {
		return reply("✅ Case sensitivity enabled.", ModePlain)
	}
	return reply("✅ Case sensitivity disabled.", ModePlain)
}

func (r *Router) handleAddAdmin(req Request, reply Responder) error {
	if len(req.Args) == 0 {
		return reply("❌ Please provide a user ID. Usage: `/add_admin 123456789`", ModeMarkdown)
	}
	userID, err := strconv.ParseInt(req.Args[0], 10, 64)
	if err != nil {
		return reply("❌ Invalid user ID. Please provide a numeric user ID.", ModePlain)
	}
	r.store.AddAdmin(userID)
	return reply(fmt.Sprintf("✅ Added administrator: `%d`", userID), ModeMarkdown)
}

func (r *Router) handleSyncAdmins(req Request, reply Responder) error {
	added, err := r.sync.Sync(req.ChatID)
	if err != nil {
		r.log.Error().Err(err).Int64("chat_id", req.ChatID).Msg("Admin sync failed")
		return reply("❌ Could not fetch this chat's administrator list.", ModePlain)
	}
	if len(added) == 0 {
		return reply("✅ No new administrators found.", ModePlain)
	}

	var sb strings.Builder
	sb.WriteString("✅ Added administrators:\n")
	for _, adm := range added {
		if adm.Username != "" {
			fmt.Fprintf(&sb, "• @%s (`%d`)\n", adm.Username, adm.UserID)
		} else {
			fmt.Fprintf(&sb, "• `%d`\n", adm.UserID)
		}
	}
	return reply(sb.String(), ModeMarkdown)
}
