// Package accumulator merges fetched channels across pages and terms,
// collapsing repeats and routing each unique channel through classification
// exactly once per run.
package accumulator

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/category"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/classifier"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/evidence"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/provinces"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/strategy"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
)

// RawEntity is one fetched channel before classification. Call-scoped: it
// is discarded after Ingest.
type RawEntity struct {
	ChannelID   string
	Name        string
	Description string
	Subscribers int64
	Streaming   bool   // channel has a live or scheduled stream
	PageText    string // any additional text worth scanning for evidence
	PublishedAt string
}

func (r RawEntity) text() string {
	return r.Name + " " + r.Description + " " + r.PageText
}

// Store is the persistence boundary the accumulator hands records to.
type Store interface {
	// UpsertStreamer creates the record or refreshes an existing one when
	// the new classification is at least as confident. Returns whether a
	// new row was created.
	UpsertStreamer(ctx context.Context, s *types.Streamer) (bool, error)
	// RefreshSubscribers updates the count for an already-classified
	// channel without re-running classification.
	RefreshSubscribers(ctx context.Context, channelID string, subs int64) error
}

// Notifier is told about each newly confirmed streamer. Implementations
// must tolerate being nil-checked by the caller, not here.
type Notifier interface {
	StreamerFound(ctx context.Context, s types.Streamer)
}

type Config struct {
	MinSubscribers int64
	MinCertainty   int
}

type Accumulator struct {
	mu   sync.Mutex
	seen map[string]struct{}

	extractor  *evidence.Extractor
	classifier *classifier.Classifier
	mapper     *provinces.Mapper
	store      Store
	notifier   Notifier
	cfg        Config

	analyzed   int
	found      int
	skipped    int
	byProvince map[string]int
}

func New(ex *evidence.Extractor, cl *classifier.Classifier, pm *provinces.Mapper, store Store, notifier Notifier, cfg Config) *Accumulator {
	return &Accumulator{
		seen:       make(map[string]struct{}),
		byProvince: make(map[string]int),
		extractor:  ex,
		classifier: cl,
		mapper:     pm,
		store:      store,
		notifier:   notifier,
		cfg:        cfg,
	}
}

// Seed marks channel IDs already present in the store so they are never
// re-classified this run.
func (a *Accumulator) Seed(ids []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range ids {
		a.seen[id] = struct{}{}
	}
}

// Known reports whether a channel has already been seen. Read-only; callers
// use it to skip expensive detail lookups, Ingest still rechecks atomically.
func (a *Accumulator) Known(channelID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.seen[channelID]
	return ok
}

// Ingest dedups and, for new channels, classifies and persists. isNew is
// false for repeats; repeats at most refresh the subscriber count.
func (a *Accumulator) Ingest(ctx context.Context, raw RawEntity, term strategy.Term) (isNew bool, err error) {
	if raw.ChannelID == "" || raw.Name == "" {
		a.mu.Lock()
		a.skipped++
		a.mu.Unlock()
		log.Printf("skipping malformed entity (id=%q) from term %q", raw.ChannelID, term.Text)
		return false, nil
	}

	// Atomic check-and-insert: a channel is classified at most once per run
	// even under concurrent ingestion.
	a.mu.Lock()
	if _, dup := a.seen[raw.ChannelID]; dup {
		a.mu.Unlock()
		if raw.Subscribers > 0 {
			if err := a.store.RefreshSubscribers(ctx, raw.ChannelID, raw.Subscribers); err != nil {
				return false, err
			}
		}
		return false, nil
	}
	a.seen[raw.ChannelID] = struct{}{}
	a.analyzed++
	a.mu.Unlock()

	// Channels without live or scheduled streams are not streamers, no
	// matter how Argentine their text reads.
	if !raw.Streaming {
		return true, nil
	}

	set := a.extractor.Extract(raw.text())
	res := a.classifier.Classify(set)

	if !res.Argentine || res.Confidence < a.cfg.MinCertainty {
		return true, nil
	}
	if raw.Subscribers < a.cfg.MinSubscribers {
		return true, nil
	}

	province, candidates := a.mapper.Resolve(set)
	others := ""
	if len(candidates) > 1 {
		others = strings.Join(candidates[1:], ",")
	}

	record := types.Streamer{
		ChannelID:      raw.ChannelID,
		Name:           raw.Name,
		Category:       category.Detect(raw.Name + " " + raw.Description),
		Province:       province,
		ProvinceOthers: others,
		Subscribers:    raw.Subscribers,
		Certainty:      res.Confidence,
		Method:         string(res.Method),
		Indicators:     strings.Join(res.Indicators, ","),
		URL:            "https://youtube.com/channel/" + raw.ChannelID,
		Description:    truncate(raw.Description, 500),
		DiscoveredVia:  term.Text,
		FirstSeenPhase: string(term.Phase),
	}

	created, err := a.store.UpsertStreamer(ctx, &record)
	if err != nil {
		return true, err
	}
	if created {
		a.mu.Lock()
		a.found++
		a.byProvince[orUnknown(record.Province)]++
		a.mu.Unlock()
		log.Printf("streamer found: %s (%s, %d subs, %d%% via %s)",
			record.Name, orUnknown(record.Province), record.Subscribers, record.Certainty, record.Method)
		if a.notifier != nil {
			a.notifier.StreamerFound(ctx, record)
		}
	}
	return true, nil
}

// Counts returns channels analyzed, streamers found and entities skipped
// so far this run.
func (a *Accumulator) Counts() (analyzed, found, skipped int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.analyzed, a.found, a.skipped
}

// ByProvince returns a copy of the per-province tally of streamers found
// this run.
func (a *Accumulator) ByProvince() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.byProvince))
	for k, v := range a.byProvince {
		out[k] = v
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orUnknown(province string) string {
	if province == "" {
		return "provincia incierta"
	}
	return province
}
