package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cryptofunk/engine/internal/adapters"
	"github.com/cryptofunk/engine/internal/alerts"
	"github.com/cryptofunk/engine/internal/config"
	"github.com/cryptofunk/engine/internal/history"
	"github.com/cryptofunk/engine/internal/llm"
	"github.com/cryptofunk/engine/internal/metrics"
	"github.com/cryptofunk/engine/internal/orchestrator"
	"github.com/cryptofunk/engine/internal/persistence"
	"github.com/cryptofunk/engine/internal/planner"
	"github.com/cryptofunk/engine/internal/safety"
	"github.com/cryptofunk/engine/internal/state"
	"github.com/cryptofunk/engine/internal/temporal"
	"github.com/cryptofunk/engine/internal/validation"
	"github.com/cryptofunk/engine/internal/vault"
)

// engine is the single process that wires every decision-engine
// collaborator together and drives the per-symbol decision tick loop,
// the Go analog of original_source's orchestrator.py entry point.
type engine struct {
	cfg      *config.Config
	eng      *orchestrator.Engine
	history  *history.Store
	debates  *persistence.Store
	redis    *redis.Client
	pgpool   *pgxpool.Pool
	nats     *nats.Conn
	metrics  *metrics.Server
	riskProf planner.RiskProfile
	gateway  *temporal.Gateway
	safety   *safety.Enforcer
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load or validate configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := buildEngine(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build decision engine")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := e.metrics.Start(); err != nil {
			errChan <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	go func() {
		if err := e.run(ctx); err != nil {
			errChan <- fmt.Errorf("decision loop: %w", err)
		}
	}()

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case err := <-errChan:
		log.Error().Err(err).Msg("engine error")
	}

	log.Info().Msg("initiating graceful shutdown...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	e.shutdown(shutdownCtx)
	log.Info().Msg("decision engine shutdown complete")
}

// buildEngine constructs every collaborator the decision graph needs:
// boundary-enforced market/news/financials/sentiment adapters behind the
// temporal gateway, the research planner, the LLM-backed debate narrator,
// the NATS decision publisher, and the Redis/Postgres persistence stores
// that back explainability queries.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	histStore := history.NewWithClient(redisClient, history.Config{
		Prefix:       "cryptofunk:history:",
		MaxPerSymbol: 20,
		TTL:          7 * 24 * time.Hour,
	})

	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User, cfg.Database.Password, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode)
	pgPool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pgPool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pgPool.Exec(ctx, persistence.Schema); err != nil {
		return nil, fmt.Errorf("apply agent_debates schema: %w", err)
	}
	debateStore := persistence.NewStoreWithPool(pgPool)

	natsConn, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	publisher := orchestrator.NewNATSPublisher(natsConn, "cryptofunk.engine.decisions")

	httpTimeout := time.Duration(cfg.LLM.Timeout) * time.Millisecond
	priceHTTP := adapters.NewHTTPSource(adapters.HTTPSourceConfig{BaseURL: cfg.MCP.External.CoinGecko.URL, Timeout: 10 * time.Second})
	newsHTTP := adapters.NewHTTPSource(adapters.HTTPSourceConfig{Timeout: 10 * time.Second})
	financialsHTTP := adapters.NewHTTPSource(adapters.HTTPSourceConfig{Timeout: 10 * time.Second})
	sentimentHTTP := adapters.NewHTTPSource(adapters.HTTPSourceConfig{Timeout: 10 * time.Second})

	gatewayMode := temporal.ModeStrict
	switch cfg.Gateway.Mode {
	case "lax":
		gatewayMode = temporal.ModeLax
	case "live":
		gatewayMode = temporal.ModeLive
	}

	gateway := temporal.New(temporal.Config{
		Mode:        gatewayMode,
		LogAccess:   cfg.Gateway.LogAccess,
		Price:       adapters.NewPriceSource(priceHTTP),
		News:        adapters.NewNewsSource(newsHTTP),
		Financials:  adapters.NewFinancialsSource(financialsHTTP),
		Sentiment:   adapters.NewSentimentSource(sentimentHTTP),
		RedisClient: redisClient,
	})

	taskRunner := adapters.NewTaskRunner(gateway)
	includeOptionalTasks := cfg.Planner.IncludeOptionalTasks
	plan := planner.New(planner.Config{
		MaxParallelTasks:     cfg.Planner.MaxParallelTasks,
		ParallelEnabled:      cfg.Planner.ParallelEnabled,
		IncludeOptionalTasks: &includeOptionalTasks,
		MaxResearchTime:      time.Duration(cfg.Planner.MaxResearchTimeSeconds) * time.Second,
		Execute:              taskRunner.Execute,
	})

	llmClient := llm.NewClient(llm.ClientConfig{
		Endpoint:    cfg.LLM.Endpoint,
		APIKey:      resolveLLMAPIKey(ctx, cfg.LLM.PrimaryModel),
		Model:       cfg.LLM.PrimaryModel,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     httpTimeout,
	})

	var alerters []alerts.Alerter
	alerters = append(alerters, alerts.NewLogAlerter(), alerts.NewConsoleAlerter())
	if botToken := os.Getenv("TELEGRAM_BOT_TOKEN"); botToken != "" {
		tgAlerter, err := alerts.NewTelegramAlerter(botToken, telegramChatIDs())
		if err != nil {
			log.Warn().Err(err).Msg("telegram alerter unavailable, continuing without it")
		} else {
			alerters = append(alerters, tgAlerter)
		}
	}
	alertManager := alerts.NewManager(alerters...)

	// The safety enforcer watches trade outcomes, broadcasts pause/resume
	// control messages over NATS, and gates decideNode: a pause dominates
	// every other signal for the rest of the decision graph.
	safetyEnforcer := safety.New(safety.Config{
		ConsecutiveLossLimit: cfg.Safety.MaxConsecutiveLosses,
		APIErrorBurstLimit:   cfg.Safety.APIErrorBurstPerMin,
		SentimentDropFloor:   cfg.Safety.SentimentDropMin,
		SlippageMEVLimit:     cfg.Safety.MaxSlippagePct / 100,
		DailyLossLimit:       cfg.Safety.DailyLossLimitPct,
		CooldownPeriod:       time.Duration(cfg.Safety.CooldownMinutes) * time.Minute,
		NATSConn:             natsConn,
		Alerter:              alertManager,
	})

	deps := orchestrator.NewDeps()
	deps.Planner = plan
	deps.Aggregator = planner.NewAggregator()
	deps.Gateway = gateway
	deps.LLM = adapters.NewLanguageModelAdapter(llmClient)
	deps.Publisher = publisher
	deps.Safety = orchestrator.SafetyEnforcerAdapter{Enforcer: safetyEnforcer}
	deps.Validation.Threshold = cfg.Validation.Threshold
	if len(cfg.Validation.RequiredDataSources) > 0 {
		deps.Validation.RequiredDataSources = cfg.Validation.RequiredDataSources
	}
	riskProfile := planner.RiskProfileModerate
	deps.RiskProfile = riskProfile

	eng := orchestrator.NewEngine(deps)

	metricsSrv := metrics.NewServer(cfg.Monitoring.PrometheusPort, log.Logger)

	return &engine{
		cfg:      cfg,
		eng:      eng,
		history:  histStore,
		debates:  debateStore,
		redis:    redisClient,
		pgpool:   pgPool,
		nats:     natsConn,
		metrics:  metricsSrv,
		riskProf: riskProfile,
		gateway:  gateway,
		safety:   safetyEnforcer,
	}, nil
}

// run drives the decision tick loop: once per tick, for every configured
// trading symbol, it runs the full decision graph and persists the
// resulting record to both the Redis recency store and the Postgres
// debate log.
func (e *engine) run(ctx context.Context) error {
	symbols := e.cfg.Trading.Symbols
	if len(symbols) == 0 {
		return fmt.Errorf("no trading symbols configured")
	}

	tick := 30 * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	log.Info().Strs("symbols", symbols).Dur("interval", tick).Msg("starting decision loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, symbol := range symbols {
				e.tick(ctx, symbol)
			}
		}
	}
}

func (e *engine) tick(ctx context.Context, rawSymbol string) {
	symbol := validation.SanitizeSymbol(rawSymbol)
	price, _, err := e.gateway.GetPrice(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to read price for tick")
	}

	s := state.New(symbol, map[string]any{"price": price}, 3)

	result, err := e.eng.Run(ctx, s)
	if err != nil {
		log.Error().Err(err).Str("symbol", symbol).Msg("decision graph failed")
		return
	}

	rec := history.RecordFromState(symbol, result)
	if err := e.history.Add(ctx, rec); err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("failed to record decision history")
	}

	if result.FinalDecision != nil {
		scores := map[string]float64{
			"confidence": result.Confidence,
			"sentiment":  result.SentimentScore,
		}
		d := &persistence.Debate{
			Symbol:          symbol,
			Action:          result.FinalDecision.Action,
			Confidence:      result.FinalDecision.Confidence,
			Sentiment:       result.FinalDecision.Sentiment,
			BullArgument:    result.BullArgument,
			BearArgument:    result.BearArgument,
			ResearchSummary: result.ResearchSummary,
			AgentScores:     scores,
		}
		if err := e.debates.SaveDebate(ctx, d); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("failed to persist agent debate")
		}
	}

	log.Info().
		Str("symbol", symbol).
		Str("explanation", history.Explain(rec)).
		Msg("decision tick complete")
}

func (e *engine) shutdown(ctx context.Context) {
	if err := e.metrics.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown error")
	}
	e.nats.Close()
	e.pgpool.Close()
	if err := e.redis.Close(); err != nil {
		log.Warn().Err(err).Msg("redis client close error")
	}
}

// telegramChatIDs returns no chat IDs: TELEGRAM_CHAT_IDS is not read, so a
// Telegram alerter built with this list skips every alert and only the
// log/console alerters deliver.
func telegramChatIDs() []int64 {
	return nil
}

// resolveLLMAPIKey prefers the key Vault holds for the configured model
// family over the LLM_API_KEY environment variable, matching the
// original's practice of keeping provider credentials in Vault rather
// than process environment. Vault is entirely optional: no VAULT_ADDR,
// an unreachable server, or a missing secret all fall back to the env
// var without failing engine startup.
func resolveLLMAPIKey(ctx context.Context, model string) string {
	envKey := os.Getenv("LLM_API_KEY")
	if os.Getenv("VAULT_ADDR") == "" {
		return envKey
	}

	client, err := vault.NewClientFromEnv()
	if err != nil {
		log.Warn().Err(err).Msg("vault client unavailable, falling back to LLM_API_KEY")
		return envKey
	}

	llmCfg, err := client.GetLLMConfig(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to read llm secret from vault, falling back to LLM_API_KEY")
		return envKey
	}

	switch {
	case strings.Contains(model, "claude") && llmCfg.AnthropicAPIKey != "":
		return llmCfg.AnthropicAPIKey
	case strings.Contains(model, "gpt") && llmCfg.OpenAIAPIKey != "":
		return llmCfg.OpenAIAPIKey
	case strings.Contains(model, "gemini") && llmCfg.GeminiAPIKey != "":
		return llmCfg.GeminiAPIKey
	default:
		log.Warn().Str("model", model).Msg("no matching vault llm key for configured model, falling back to LLM_API_KEY")
		return envKey
	}
}
