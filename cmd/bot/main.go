package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	tele "gopkg.in/telebot.v4"

	"cuckoo-backend/internal/bot"
	"cuckoo-backend/internal/config"
	"cuckoo-backend/internal/quiz"
)

func main() {
	log.Println("🚀 Starting Cuckoo bot...")

	cfg, err := config.LoadBot(os.Getenv("BOT_CONFIG"))
	if err != nil {
		log.Fatalf("✗ Bot config: %v", err)
	}
	log.Println("✓ Configuration loaded")

	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollEvery},
	})
	if err != nil {
		log.Fatalf("✗ Telegram connection failed: %v", err)
	}
	log.Printf("✓ Logged in as @%s", b.Me.Username)

	b.Use(bot.Recover())
	if cfg.Debug {
		b.Use(bot.Logger())
	}

	client := bot.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	machine := quiz.NewMachine(quiz.NewMemoryStore(), quiz.WithSize(cfg.QuizSize))
	bot.Register(b, bot.NewQuiz(machine, client))
	log.Printf("✓ Questions served by %s (timeout %s)", cfg.APIBaseURL, cfg.APITimeout)

	go b.Start()
	log.Println("✓ Polling for updates")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down bot...")
	b.Stop()
	log.Println("Bot stopped")
}
