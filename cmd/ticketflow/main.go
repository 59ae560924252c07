package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prompt-general/ticketflow/internal/api"
	"github.com/prompt-general/ticketflow/internal/cache"
	"github.com/prompt-general/ticketflow/internal/classify"
	"github.com/prompt-general/ticketflow/internal/config"
	"github.com/prompt-general/ticketflow/internal/escalation"
	"github.com/prompt-general/ticketflow/internal/events"
	"github.com/prompt-general/ticketflow/internal/health"
	"github.com/prompt-general/ticketflow/internal/knowledge"
	"github.com/prompt-general/ticketflow/internal/learning"
	"github.com/prompt-general/ticketflow/internal/llm"
	"github.com/prompt-general/ticketflow/internal/resolution"
	"github.com/prompt-general/ticketflow/internal/store"
	"github.com/prompt-general/ticketflow/internal/workflow"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		configFile  = flag.String("config", "config/config.yaml", "Configuration file path")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
	)
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	if *showVersion {
		printVersion()
		return
	}

	log.Printf("Starting ticketflow v%s (commit: %s, built: %s)", version, commit, date)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	llmClient := llm.NewClient(cfg.LLM)
	healthChecker := health.NewChecker()

	// Classification advisories are cached when Redis is configured.
	var classifyAdvisor classify.Advisor = llm.NewClassificationAdvisor(llmClient)
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisCache(cfg.Redis)
		defer redisCache.Close()
		classifyAdvisor = llm.NewCachedClassificationAdvisor(classifyAdvisor, redisCache, cfg.Redis.TTL)
		healthChecker.Register(health.NewPingCheck("redis", 100*time.Millisecond, redisCache.Ping))
		log.Printf("Classification cache enabled at %s", cfg.Redis.Addr)
	}

	// Knowledge base is optional; without it the pipeline resolves
	// tickets from the model alone.
	var kbStore knowledge.Store
	var usageRecorder resolution.UsageRecorder
	var ratingStore learning.RatingStore
	if cfg.Postgres.DSN != "" {
		pgStore, err := knowledge.NewPostgresStore(ctx, cfg.Postgres.DSN, cfg.Postgres.Table)
		if err != nil {
			log.Fatalf("Failed to initialize knowledge store: %v", err)
		}
		defer pgStore.Close()
		kbStore = pgStore
		usageRecorder = pgStore
		ratingStore = pgStore
		healthChecker.Register(health.NewPingCheck("postgres", 100*time.Millisecond, pgStore.Ping))
	} else {
		log.Printf("No knowledge store configured, search disabled")
	}

	var publisher workflow.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewPublisher(cfg.Kafka)
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	classifier := classify.NewEngine(classifyAdvisor, classifyRules(cfg))
	ranker := knowledge.NewRanker(cfg.Pipeline.MinRelevanceScore)
	searcher := knowledge.NewSearcher(kbStore, llmClient, ranker, cfg.Pipeline.KnowledgeSearchLimit)
	evaluator := escalation.NewEngine(llm.NewEscalationAdvisor(llmClient), escalationRules(cfg))
	synthesizer := resolution.NewSynthesizer(llmClient, usageRecorder, cfg.Pipeline.MaxResponseLength)

	orchestrator := workflow.NewOrchestrator(
		classifier, searcher, evaluator, synthesizer, publisher,
		cfg.Pipeline.MaxConcurrentTickets,
	)

	tickets := store.NewMemoryStore()
	learner := learning.NewAgent(ratingStore)

	gateway := api.NewGateway(cfg.API, orchestrator, tickets, searcher, learner)
	gateway.SetHealthChecker(healthChecker)

	go func() {
		if err := gateway.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Gateway failed: %v", err)
		}
	}()

	waitForShutdown(cancel, gateway)
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Config file %s not found, using defaults", path)
		return config.Default(), nil
	}
	return config.Load(path)
}

func classifyRules(cfg *config.Config) classify.Rules {
	rules := classify.DefaultRules()
	if len(cfg.Pipeline.HighPriorityKeywords) > 0 {
		rules.HighPriorityKeywords = cfg.Pipeline.HighPriorityKeywords
	}
	if len(cfg.Pipeline.SecurityKeywords) > 0 {
		rules.SecurityKeywords = cfg.Pipeline.SecurityKeywords
	}
	return rules
}

func escalationRules(cfg *config.Config) escalation.Rules {
	rules := escalation.DefaultRules()
	if len(cfg.Pipeline.EscalationKeywords) > 0 {
		rules.EscalationKeywords = cfg.Pipeline.EscalationKeywords
	}
	return rules
}

func waitForShutdown(cancel context.CancelFunc, gateway *api.Gateway) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := gateway.Stop(shutdownCtx); err != nil {
		log.Printf("Error during gateway shutdown: %v", err)
	}

	cancel()
	log.Println("ticketflow stopped")
}

func printHelp() {
	fmt.Printf(`ticketflow - AI-assisted customer support ticket resolution

Usage:
  ticketflow [flags]

Flags:
  -config string
        Configuration file path (default "config/config.yaml")
  -version
        Show version information
  -help
        Show this help message

Examples:
  ticketflow                                   # Start with default config
  ticketflow -config config/production.yaml    # Start with production config
  ticketflow -version                          # Show version
`)
}

func printVersion() {
	fmt.Printf("ticketflow version %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Built: %s\n", date)
}
