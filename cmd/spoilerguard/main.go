// Copyright 2024-2026 Aiku AI

// Command spoilerguard is a Telegram bot that watches enabled group chats
// for configured spoiler keywords, deletes matching messages, and reposts
// them with ||spoiler|| markers attributed to the original author. Keyword
// lists are per chat and persist across restarts, together with the
// administrator set and the enabled-chat set.
package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mau.fi/util/exzerolog"

	"github.com/aiku/spoilerguard/pkg/bot"
	"github.com/aiku/spoilerguard/pkg/config"
	"github.com/aiku/spoilerguard/pkg/health"
	"github.com/aiku/spoilerguard/pkg/store"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "spoilerguard",
	Short:   "Telegram bot that redacts configured spoiler keywords in group chats",
	Version: fmt.Sprintf("%s (%s, built %s)", Tag, Commit, BuildTime),
	RunE:    run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the service config file")
	rootCmd.SilenceUsage = true
}

func run(_ *cobra.Command, _ []string) error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logPtr, err := cfg.Logging.Compile()
	if err != nil {
		return fmt.Errorf("failed to configure logging: %w", err)
	}
	log := *logPtr
	exzerolog.SetupDefaults(&log)

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	st := store.New(cfg.StatePath, log.With().Str("component", "store").Logger())
	st.Load()
	seedInitialAdmin(st, log)

	health.New(cfg.ListenAddr, log.With().Str("component", "health").Logger()).Start()

	b, err := bot.New(bot.Options{
		Token:       token,
		PollTimeout: time.Duration(cfg.PollTimeout) * time.Second,
		Store:       st,
		Log:         log,
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	log.Info().Str("version", Tag).Msg("Starting spoilerguard")
	b.Start()
	return nil
}

// seedInitialAdmin adds the bootstrap administrator from the environment so
// privileged commands work before the first /add_admin is ever issued.
func seedInitialAdmin(st *store.Store, log zerolog.Logger) {
	raw := os.Getenv("SPOILERGUARD_ADMIN_ID")
	if raw == "" {
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("value", raw).Msg("Ignoring non-numeric SPOILERGUARD_ADMIN_ID")
		return
	}
	st.AddAdmin(id)
	log.Info().Int64("user_id", id).Msg("Seeded initial administrator")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
