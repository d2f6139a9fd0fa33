// Copyright 2024-2026 Aiku AI

// Package bot implements the Telegram-facing core of spoilerguard: the
// message-redaction pipeline, the administrative command router, the
// authorization gate, and the admin sync service.
//
// # Core Types
//
// [Pipeline] runs each inbound text message through gate check, keyword
// matching, spoiler rewriting, and delete-and-repost. A permission failure
// on either the delete or the repost degrades to a single warning notice in
// the originating thread; the pipeline never retries.
//
// [Router] dispatches administrative commands through an explicit table
// built once at startup. Every command passes the same wrapper: gate check,
// argument validation, and local error containment.
//
// [Gate] guards privileged operations by membership in the bot-level
// administrator set. The only exception is bootstrap: while the set is
// empty, anyone may register the first administrator.
//
// [AdminSync] imports a chat's platform administrators into the bot-level
// set. It only ever adds; revocation is manual.
//
// # Event Containment
//
// Each update is handled inside a recover boundary, so a failure in one
// chat's event never stops the poll loop or affects other chats' in-flight
// processing. The one deliberate exception is a duplicate-instance
// conflict (HTTP 409 from the platform): two instances sharing a token
// would race each other on deletions, so that error is fatal.
package bot
