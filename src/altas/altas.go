// Altas injects hand-curated channels into the registry. Each channel goes
// through the same evidence pipeline as discovered ones; -force admits
// channels the classifier rejects, recorded as manual adds.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/category"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/classifier"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/evidence"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/provinces"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/quota"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/youtube"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/config"
	cdata "github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/data"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/shared/data"
)

var channelIDRe = regexp.MustCompile(`UC[a-zA-Z0-9_-]{22}`)

func main() {
	force := flag.Bool("force", false, "add channels even when classification rejects them")
	file := flag.String("file", "", "file with one channel ID or URL per line")
	flag.Parse()

	_ = godotenv.Load()

	ids, err := collectIDs(flag.Args(), *file)
	if err != nil {
		log.Fatalf("read channel list: %v", err)
	}
	if len(ids) == 0 {
		log.Fatal("no channel IDs given; pass IDs/URLs as arguments or via -file")
	}

	db := data.MustMySQL(data.GetMySQLDSN())
	store := cdata.NewStore(db)
	if err := store.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	cfg := config.LoadCrawl(db)
	if cfg.YouTubeAPIKey == "" {
		log.Fatal("youtube_api_key not configured")
	}

	budget := quota.NewBudget(cfg.DailyLimit, cfg.WarnThreshold)
	yt := youtube.New(youtube.Config{APIKey: cfg.YouTubeAPIKey}, budget, nil)

	ext := evidence.NewExtractor(evidence.DefaultCatalogs())
	cls := classifier.New(classifier.DefaultConfig())
	mapper := provinces.NewDefaultMapper()

	ctx := context.Background()
	known := make(map[string]struct{})
	if existing, err := store.ExistingIDs(ctx); err == nil {
		for _, id := range existing {
			known[id] = struct{}{}
		}
	}

	added, rejected, skipped := 0, 0, 0
	for i, id := range ids {
		log.Printf("[%d/%d] %s", i+1, len(ids), id)

		if _, ok := known[id]; ok {
			log.Printf("  already in registry, skipped")
			skipped++
			continue
		}

		detail, err := yt.ChannelDetail(ctx, id)
		if err != nil {
			log.Fatalf("channel lookup %s: %v", id, err)
		}
		if detail == nil {
			log.Printf("  channel not found, skipped")
			skipped++
			continue
		}

		streaming, err := yt.HasStreaming(ctx, id)
		if err != nil {
			log.Fatalf("streaming check %s: %v", id, err)
		}
		if !streaming && !*force {
			log.Printf("  no live or scheduled streams, rejected")
			rejected++
			continue
		}

		text := detail.Title + " " + detail.Description
		if streaming {
			if videos, err := yt.RecentVideos(ctx, id); err != nil {
				log.Printf("  recent videos unavailable: %v", err)
			} else {
				for _, v := range videos {
					text += " " + v.Title + " " + v.Description
				}
			}
		}

		set := ext.Extract(text)
		res := cls.Classify(set)
		province, candidates := mapper.Resolve(set)

		accepted := streaming && res.Argentine &&
			res.Confidence >= cfg.MinCertainty &&
			detail.Subscribers >= cfg.MinSubscribers
		method := string(res.Method)
		certainty := res.Confidence
		if !accepted {
			if !*force {
				log.Printf("  rejected (%s, certeza %d, %d subs)", method, certainty, detail.Subscribers)
				rejected++
				continue
			}
			method = string(classifier.MethodManual)
			certainty = 100
			log.Printf("  forced in as manual add")
		}

		rec := &types.Streamer{
			ChannelID:      detail.ChannelID,
			Name:           detail.Title,
			Category:       category.Detect(text),
			Province:       province,
			ProvinceOthers: strings.Join(rest(candidates), ", "),
			Subscribers:    detail.Subscribers,
			Certainty:      certainty,
			Method:         method,
			Indicators:     strings.Join(res.Indicators, ", "),
			URL:            fmt.Sprintf("https://youtube.com/channel/%s", detail.ChannelID),
			Description:    detail.Description,
			DiscoveredVia:  "alta manual",
			FirstSeenPhase: "manual",
		}
		if _, err := store.UpsertStreamer(ctx, rec); err != nil {
			log.Fatalf("persist %s: %v", id, err)
		}
		known[id] = struct{}{}
		added++
		log.Printf("  added: %s (%s, certeza %d)", rec.Name, orIncierta(rec.Province), rec.Certainty)
	}

	log.Printf("Done: %d added, %d rejected, %d skipped, %d quota units spent",
		added, rejected, skipped, budget.Consumed())
}

// collectIDs pulls channel IDs out of raw arguments and an optional list
// file; full YouTube URLs are accepted and reduced to their UC id.
func collectIDs(args []string, file string) ([]string, error) {
	raw := append([]string(nil), args...)
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			raw = append(raw, line)
		}
		if err := sc.Err(); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, r := range raw {
		id := channelIDRe.FindString(r)
		if id == "" {
			log.Printf("ignoring %q: no channel ID found", r)
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func rest(candidates []string) []string {
	if len(candidates) <= 1 {
		return nil
	}
	return candidates[1:]
}

func orIncierta(p string) string {
	if p == "" {
		return "provincia incierta"
	}
	return p
}
