package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/accumulator"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/classifier"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/evidence"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/notify"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/provinces"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/quota"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/runner"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/strategy"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/youtube"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/config"
	cdata "github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/data"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/shared/data"
)

// discoveryNotifier fans each confirmed streamer out to Discord and the
// Redis discovery stream. Both legs are optional and best effort.
type discoveryNotifier struct {
	discord *notify.Discord
	rdb     *redis.Client
}

func (n *discoveryNotifier) StreamerFound(ctx context.Context, s types.Streamer) {
	if n.discord != nil {
		n.discord.StreamerFound(ctx, s)
	}
	if n.rdb != nil {
		payload := map[string]interface{}{
			"channel_id":  s.ChannelID,
			"name":        s.Name,
			"province":    s.Province,
			"category":    s.Category,
			"subscribers": s.Subscribers,
			"certainty":   s.Certainty,
			"method":      s.Method,
			"url":         s.URL,
		}
		if err := data.PublishDiscovery(ctx, n.rdb, payload); err != nil {
			log.Printf("Error publishing discovery %s: %v", s.ChannelID, err)
		}
	}
}

func main() {
	fase := flag.String("fase", "", "limit the run to one phase: general, provincia, codigo_local, cultural")
	flag.Parse()

	_ = godotenv.Load()

	db := data.MustMySQL(data.GetMySQLDSN())
	store := cdata.NewStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	cfg := config.LoadCrawl(db)
	if cfg.YouTubeAPIKey == "" {
		log.Fatal("youtube_api_key not configured")
	}
	rdb := data.MustRedis(cfg.RedisURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Println("Shutdown requested, finishing current page")
		cancel()
	}()

	budget := quota.NewBudget(cfg.DailyLimit, cfg.WarnThreshold)
	pageCache := youtube.NewPageCache(rdb, cfg.PageCacheTTL)
	yt := youtube.New(youtube.Config{APIKey: cfg.YouTubeAPIKey}, budget, pageCache)

	notifier := &discoveryNotifier{rdb: rdb}
	if cfg.DiscordToken != "" && cfg.DiscordChannel != "" {
		d, err := notify.NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			log.Printf("Discord disabled: %v", err)
		} else {
			notifier.discord = d
			defer d.Close()
		}
	}

	clsCfg := classifier.DefaultConfig()
	clsCfg.AcceptThreshold = cfg.AcceptThreshold

	extractor := evidence.NewExtractor(evidence.DefaultCatalogs())
	acc := accumulator.New(
		extractor,
		classifier.New(clsCfg),
		provinces.NewDefaultMapper(),
		store,
		notifier,
		accumulator.Config{
			MinSubscribers: cfg.MinSubscribers,
			MinCertainty:   cfg.MinCertainty,
		},
	)

	ids, err := store.ExistingIDs(ctx)
	if err != nil {
		log.Fatalf("load existing channels: %v", err)
	}
	acc.Seed(ids)
	log.Printf("Seeded %d known channels", len(ids))

	plan := strategy.BuildPlan(strategy.DefaultCatalog())
	if *fase != "" {
		plan = strategy.OnlyPhase(plan, strategy.Phase(*fase))
		if len(plan) == 0 {
			log.Fatalf("unknown phase %q", *fase)
		}
		log.Printf("Limited to phase %s: %d terms", *fase, len(plan))
	}

	runCfg := runner.DefaultConfig()
	runCfg.ReserveUnits = cfg.SafetyBuffer

	r := runner.New(runCfg, strategy.NewPlannerFromTerms(plan), yt, acc, store, budget)
	rep, runErr := r.Run(ctx)

	analyzed, found, _ := acc.Counts()
	rollupCtx := context.Background()
	if err := store.RollupDaily(rollupCtx, analyzed, found, budget.Consumed(), acc.ByProvince()); err != nil {
		log.Printf("Error writing daily rollup: %v", err)
	}
	if notifier.discord != nil {
		notifier.discord.RunSummary(rollupCtx, rep)
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("run %s aborted: %v", rep.RunID, runErr)
	}
}
