package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentry "github.com/getsentry/sentry-go"
	telego "github.com/mymmrac/telego"

	appBot "submitdesk-bot/bot"
	"submitdesk-bot/internal/ads"
	"submitdesk-bot/internal/channels"
	"submitdesk-bot/internal/command"
	"submitdesk-bot/internal/config"
	"submitdesk-bot/internal/handlers"
	"submitdesk-bot/internal/locales"
	"submitdesk-bot/internal/policy"
	"submitdesk-bot/internal/review"
	"submitdesk-bot/internal/stats"
	"submitdesk-bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	locales.Init(cfg.DefaultLanguage)

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Version,
		EnableTracing:    true,
		TracesSampleRate: 1.0,
		Debug:            cfg.Debug,
	})
	if err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
	defer sentry.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, db, err := storage.Connect(ctx, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
			sentry.CaptureException(err)
		} else {
			log.Println("Disconnected from MongoDB.")
		}
	}()
	if err := storage.EnsureIndexes(ctx, db); err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	userRepo := storage.NewMongoUserRepository(db)
	submissionRepo := storage.NewMongoSubmissionRepository(db)
	policyRepo := storage.NewMongoChannelPolicyRepository(db)
	adRepo := storage.NewMongoAdvertisementRepository(db)
	placementRepo := storage.NewMongoAdPlacementRepository(db)

	var bot *telego.Bot
	if cfg.Debug {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultDebugLogger())
	} else {
		bot, err = telego.NewBot(cfg.BotToken, telego.WithDefaultLogger(false, false))
	}
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to create telego bot: %v", err)
	}

	updatesChan, err := bot.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to start long polling: %v", err)
	}

	snapshot, err := channels.Init(ctx, bot, cfg)
	if err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to resolve configured chats: %v", err)
	}

	policyEngine := policy.NewEngine(policyRepo)
	workflow := review.NewWorkflow(bot, submissionRepo, userRepo, policyEngine, snapshot)
	reconciler := stats.NewReconciler(userRepo, submissionRepo, cfg.StatsBatchSize)

	registry := command.NewRegistry()
	commandHandlers := handlers.New(workflow, policyEngine, snapshot, userRepo, reconciler)
	if err := commandHandlers.Register(registry); err != nil {
		sentry.CaptureException(err)
		log.Fatalf("Failed to register commands: %v", err)
	}
	dispatcher := command.NewDispatcher(registry, bot)

	b, err := appBot.New(appBot.Deps{
		Bot:         bot,
		UpdatesChan: updatesChan,
		Dispatcher:  dispatcher,
		Workflow:    workflow,
		Users:       userRepo,
		Debug:       cfg.Debug,
	})
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal(err)
	}

	slotManager := ads.NewSlotManager(bot, placementRepo)
	var adDestinations []int64
	if snapshot.CommentGroup.Resolved() {
		adDestinations = append(adDestinations, snapshot.CommentGroup.ID)
	}
	if snapshot.SubGroup.Resolved() && snapshot.SubGroup.ID != snapshot.CommentGroup.ID {
		adDestinations = append(adDestinations, snapshot.SubGroup.ID)
	}
	adScheduler := ads.NewScheduler(slotManager, adRepo, adDestinations, ads.DefaultPublishInterval)
	go adScheduler.Run(ctx)

	go b.Start(ctx)

	<-ctx.Done()
	log.Println("Shutting down bot...")
	log.Println("Bot shutdown complete.")
}
