package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"moonwatch/internal/analyzer"
	"moonwatch/internal/bot"
	"moonwatch/internal/cache"
	"moonwatch/internal/config"
	"moonwatch/internal/db"
	"moonwatch/internal/handler"
	"moonwatch/internal/job"
	"moonwatch/internal/provider"
	"moonwatch/internal/repository"
	"moonwatch/internal/service"
	"moonwatch/internal/strategy"
	"moonwatch/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	tele "gopkg.in/telebot.v3"
)

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer

	newTokenRepoFunc  = repository.NewTokenRepository
	newSignalRepoFunc = repository.NewSignalRepository
	newTradeRepoFunc  = repository.NewTradeRepository

	newTokenSourcesFunc = func() []job.TokenSource {
		return []job.TokenSource{
			provider.NewDexScreenerClient(nil, nil, nil),
			provider.NewPumpFunClient(),
		}
	}
	newHoneypotFunc = func() *provider.HoneypotClient {
		return provider.NewHoneypotClient(nil, "")
	}

	newScanPollerFunc    = job.NewScanPoller
	startScanPollerFunc  = func(p *job.ScanPoller, ctx context.Context) { go p.Start(ctx) }
	newTradeMonitorFunc  = job.NewTradeMonitor
	startTradeMonFunc    = func(m *job.TradeMonitor, ctx context.Context) { go m.Start(ctx) }
	startTelegramBotFunc = bot.StartTelegramBot
	startDispatcherFunc  = func(d *bot.SignalDispatcher, ctx context.Context) { go d.Start(ctx) }

	newHandlerFunc = handler.New
	newRouterFunc  = gin.Default

	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initPostgresFunc(ctx, cfg.DatabaseURL)
	initRedisFunc(ctx, cfg.RedisURL)

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories and migrations
	tokenRepo := newTokenRepoFunc(db.Pool, tracer)
	signalRepo := newSignalRepoFunc(db.Pool, tracer)
	tradeRepo := newTradeRepoFunc(db.Pool, tracer)
	if db.Pool != nil {
		if err := tokenRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run token migrations: %v", err)
		}
		if err := signalRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run signal migrations: %v", err)
		}
		if err := tradeRepo.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run trade migrations: %v", err)
		}
	}

	// Scoring engine and exit rules
	engine := analyzer.NewEngine(cfg.MinLiquidityUSD, cfg.MinHolders, nil)
	profitRule := strategy.NewProfitTaking(cfg.ProfitTargets, nil)
	riskRule := strategy.NewRiskManagement(cfg.StopLoss, cfg.MaxHold, nil)

	// Services
	analysisService := service.NewAnalysisService(tracer, tokenRepo, signalRepo, tradeRepo, engine, cfg.MaxInvestmentUSD)
	priceCache := cache.NewPriceCache(cache.Client, tokenRepo)
	monitorService := service.NewTradeMonitorService(tracer, tradeRepo, priceCache, profitRule, riskRule)

	// Background jobs (stopped by ctx cancel)
	scanPoller := newScanPollerFunc(tracer, newTokenSourcesFunc(), tokenRepo, analysisService,
		newHoneypotFunc(), cache.NewSeenCache(cache.Client), cfg.ScanInterval, cfg.HoneypotFailOpen)
	startScanPollerFunc(scanPoller, ctx)
	tradeMonitor := newTradeMonitorFunc(tracer, monitorService, cfg.MonitorInterval)
	startTradeMonFunc(tradeMonitor, ctx)

	// Telegram bot and signal dispatch
	tgBot := startTelegramBotFunc(cfg.TelegramBotToken, tradeRepo, tokenRepo, tradeRepo)
	var sender interface {
		Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	}
	if tgBot != nil {
		sender = tgBot
	}
	dispatcher := bot.NewSignalDispatcher(sender, signalRepo, tokenRepo, cfg.TelegramChatID, cfg.DispatchInterval)
	startDispatcherFunc(dispatcher, ctx)

	// HTTP API
	h := newHandlerFunc(tracer, tokenRepo, signalRepo, tradeRepo)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("moonwatch"))
	h.RegisterRoutes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
