// Package runner executes a crawl plan: it walks the scheduled terms in
// order, pages through search results under the quota budget, routes every
// new channel through classification and persists pagination cursors so an
// interrupted run resumes where it stopped.
package runner

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/accumulator"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/quota"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/strategy"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/youtube"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
)

type State string

const (
	StateIdle        State = "idle"
	StatePlanning    State = "planning"
	StateFetching    State = "fetching"
	StateClassifying State = "classifying"
	StatePaused      State = "paused"
	StateDone        State = "done"
	StateAborted     State = "aborted"
)

// Fetcher is the search API surface the runner drives.
type Fetcher interface {
	SearchPage(ctx context.Context, term, pageToken string) (*youtube.Page, error)
	ChannelDetail(ctx context.Context, channelID string) (*youtube.Detail, error)
	HasStreaming(ctx context.Context, channelID string) (bool, error)
	RecentVideos(ctx context.Context, channelID string) ([]youtube.Video, error)
}

// Ingestor dedups and classifies fetched channels.
type Ingestor interface {
	Known(channelID string) bool
	Ingest(ctx context.Context, raw accumulator.RawEntity, term strategy.Term) (bool, error)
	Counts() (analyzed, found, skipped int)
}

// CursorStore persists per-term pagination state and the search log.
type CursorStore interface {
	LoadCursor(ctx context.Context, term string) (*types.SearchCursor, error)
	SaveCursor(ctx context.Context, cursor *types.SearchCursor) error
	LogSearch(ctx context.Context, entry *types.SearchLog) error
}

type Config struct {
	// MaxRetries is how many times a failed page or detail fetch is retried
	// before the term is surrendered for this run.
	MaxRetries int
	// BackoffBase is doubled per retry attempt.
	BackoffBase time.Duration
	// RateLimitPause is how long the run sits out an upstream throttle.
	RateLimitPause time.Duration
	// ReserveUnits stops the run early so the remaining budget is left for
	// manual lookups and the next day's warmup.
	ReserveUnits int
	// ThrottleAbove slows paging once budget utilization crosses it.
	ThrottleAbove float64
	ThrottleDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:     3,
		BackoffBase:    2 * time.Second,
		RateLimitPause: time.Minute,
		ReserveUnits:   500,
		ThrottleAbove:  0.8,
		ThrottleDelay:  time.Second,
	}
}

// Report is the end-of-run summary. Also returned on abort so progress is
// never lost to the operator.
type Report struct {
	RunID            string
	State            State
	TermsPlanned     int
	TermsSearched    int
	PagesFetched     int
	ChannelsAnalyzed int
	StreamersFound   int
	Skipped          int
	APIUnits         int
	Started          time.Time
	Finished         time.Time
}

type Runner struct {
	cfg      Config
	planner  *strategy.Planner
	fetcher  Fetcher
	ingestor Ingestor
	cursors  CursorStore
	budget   *quota.Budget

	mu            sync.Mutex
	state         State
	runID         string
	termsPlanned  int
	termsSearched int
	pagesFetched  int
	started       time.Time
}

func New(cfg Config, planner *strategy.Planner, fetcher Fetcher, ingestor Ingestor, cursors CursorStore, budget *quota.Budget) *Runner {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 2 * time.Second
	}
	if cfg.RateLimitPause <= 0 {
		cfg.RateLimitPause = time.Minute
	}
	if cfg.ThrottleAbove <= 0 || cfg.ThrottleAbove > 1 {
		cfg.ThrottleAbove = 0.8
	}
	return &Runner{
		cfg:      cfg,
		planner:  planner,
		fetcher:  fetcher,
		ingestor: ingestor,
		cursors:  cursors,
		budget:   budget,
		state:    StateIdle,
	}
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// State returns the current run phase; safe to poll from another goroutine.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// RunID is empty until Run starts.
func (r *Runner) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runID
}

// Run drives the plan to completion, cancellation or budget exhaustion.
// The report is valid even when err is non-nil.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	r.mu.Lock()
	r.runID = uuid.NewString()
	r.state = StatePlanning
	r.termsPlanned = r.planner.Remaining()
	r.started = time.Now()
	r.mu.Unlock()

	log.Printf("run %s: %d terms planned, %d quota units available",
		r.RunID(), r.termsPlanned, r.budget.Remaining())

	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if r.budget.Remaining() <= r.cfg.ReserveUnits {
			log.Printf("run %s: quota reserve reached (%d units left), stopping",
				r.RunID(), r.budget.Remaining())
			break
		}
		term, ok := r.planner.Next()
		if !ok {
			break
		}
		if err := r.searchTerm(ctx, term); err != nil {
			runErr = err
			break
		}
		r.mu.Lock()
		r.termsSearched++
		r.mu.Unlock()
	}

	final := StateDone
	if runErr != nil {
		final = StateAborted
	}
	r.setState(final)

	rep := r.report(final)
	log.Printf("run %s %s: %d/%d terms, %d pages, %d analyzed, %d found, %d units spent",
		rep.RunID, rep.State, rep.TermsSearched, rep.TermsPlanned,
		rep.PagesFetched, rep.ChannelsAnalyzed, rep.StreamersFound, rep.APIUnits)
	return rep, runErr
}

func (r *Runner) report(state State) *Report {
	analyzed, found, skipped := r.ingestor.Counts()
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Report{
		RunID:            r.runID,
		State:            state,
		TermsPlanned:     r.termsPlanned,
		TermsSearched:    r.termsSearched,
		PagesFetched:     r.pagesFetched,
		ChannelsAnalyzed: analyzed,
		StreamersFound:   found,
		Skipped:          skipped,
		APIUnits:         r.budget.Consumed(),
		Started:          r.started,
		Finished:         time.Now(),
	}
}

// searchTerm pages through one term up to its scheduled depth, resuming from
// the stored cursor. A nil return means the term is finished or surrendered
// for this run; a non-nil return aborts the whole run.
func (r *Runner) searchTerm(ctx context.Context, term strategy.Term) error {
	cursor, err := r.cursors.LoadCursor(ctx, term.Text)
	if err != nil {
		return err
	}
	if cursor == nil {
		cursor = &types.SearchCursor{Term: term.Text, Phase: string(term.Phase)}
	}
	if cursor.Exhausted || cursor.PagesFetched >= term.MaxDepth {
		return nil
	}

	startPage := cursor.PagesFetched
	found := 0

	for cursor.PagesFetched < term.MaxDepth {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.budget.Remaining() <= r.cfg.ReserveUnits {
			break
		}
		r.throttle(ctx)

		r.setState(StateFetching)
		page, err := r.fetchPage(ctx, term.Text, cursor.PageToken)
		if err != nil {
			if fatal(err) {
				return err
			}
			// Surrendered: without this page's token the rest of the term
			// is unreachable. The failed attempt still counts against the
			// term's depth, so a permanently dead page cannot pin the term
			// across runs; the token is kept for the next attempt.
			cursor.PagesFetched++
			if saveErr := r.cursors.SaveCursor(ctx, cursor); saveErr != nil {
				return saveErr
			}
			log.Printf("run %s: term %q surrendered at page %d: %v",
				r.RunID(), term.Text, cursor.PagesFetched, err)
			break
		}

		r.setState(StateClassifying)
		for _, ch := range page.Channels {
			isNew, err := r.handleChannel(ctx, ch, term)
			if err != nil {
				if fatal(err) {
					return err
				}
				log.Printf("run %s: channel %s skipped: %v", r.RunID(), ch.ChannelID, err)
				continue
			}
			if isNew {
				found++
			}
		}

		cursor.PagesFetched++
		cursor.PageToken = page.NextPageToken
		if page.NextPageToken == "" {
			cursor.Exhausted = true
		}
		r.mu.Lock()
		r.pagesFetched++
		r.mu.Unlock()
		if err := r.cursors.SaveCursor(ctx, cursor); err != nil {
			return err
		}
		if cursor.Exhausted {
			break
		}
	}

	entry := &types.SearchLog{
		RunID:         r.RunID(),
		Term:          term.Text,
		Phase:         string(term.Phase),
		PagesExplored: cursor.PagesFetched - startPage,
		ChannelsFound: found,
	}
	if err := r.cursors.LogSearch(ctx, entry); err != nil {
		log.Printf("run %s: search log write failed: %v", r.RunID(), err)
	}
	return nil
}

// handleChannel resolves a search hit into a full detail record and hands it
// to the ingestor. Known channels skip the detail fetch entirely, which is
// three units we keep.
func (r *Runner) handleChannel(ctx context.Context, ch youtube.Channel, term strategy.Term) (bool, error) {
	if r.ingestor.Known(ch.ChannelID) {
		return false, nil
	}

	var detail *youtube.Detail
	err := r.withRetry(ctx, func() error {
		var err error
		detail, err = r.fetcher.ChannelDetail(ctx, ch.ChannelID)
		return err
	})
	if err != nil {
		return false, err
	}
	if detail == nil {
		// Channel deleted between search and lookup.
		return false, nil
	}

	var streaming bool
	err = r.withRetry(ctx, func() error {
		var err error
		streaming, err = r.fetcher.HasStreaming(ctx, detail.ChannelID)
		return err
	})
	if err != nil {
		return false, err
	}

	// Recent upload titles widen the classified text, but only for channels
	// that can actually stream; anything else is dropped anyway.
	pageText := ch.Description
	if streaming {
		videos, err := r.fetcher.RecentVideos(ctx, detail.ChannelID)
		if err != nil {
			if fatal(err) {
				return false, err
			}
			log.Printf("run %s: recent videos for %s unavailable: %v", r.RunID(), detail.ChannelID, err)
		}
		for _, v := range videos {
			pageText += " " + v.Title + " " + v.Description
		}
	}

	raw := accumulator.RawEntity{
		ChannelID:   detail.ChannelID,
		Name:        detail.Title,
		Description: detail.Description,
		Subscribers: detail.Subscribers,
		Streaming:   streaming,
		PageText:    pageText,
		PublishedAt: detail.PublishedAt,
	}
	return r.ingestor.Ingest(ctx, raw, term)
}

func (r *Runner) fetchPage(ctx context.Context, term, token string) (*youtube.Page, error) {
	var page *youtube.Page
	err := r.withRetry(ctx, func() error {
		var err error
		page, err = r.fetcher.SearchPage(ctx, term, token)
		return err
	})
	return page, err
}

// withRetry retries transient and rate-limit failures with backoff. Auth and
// quota errors pass through untouched.
func (r *Runner) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			analyzed, found, skipped := r.ingestor.Counts()
			log.Printf("run %s: retry %d/%d, %d terms left (%d analyzed, %d found, %d skipped): %v",
				r.RunID(), attempt, r.cfg.MaxRetries, r.planner.Remaining(), analyzed, found, skipped, lastErr)
			if err := r.pause(ctx, retryDelay(lastErr, r.cfg, attempt)); err != nil {
				return err
			}
		}
		lastErr = fn()
		if lastErr == nil || fatal(lastErr) || !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func retryDelay(err error, cfg Config, attempt int) time.Duration {
	var rl *youtube.RateLimitError
	if errors.As(err, &rl) {
		return cfg.RateLimitPause
	}
	return cfg.BackoffBase << (attempt - 1)
}

// pause sleeps in the paused state, waking early on cancellation.
func (r *Runner) pause(ctx context.Context, d time.Duration) error {
	r.setState(StatePaused)
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// throttle slows paging once the budget runs hot so the tail of the plan is
// not burned through in one burst.
func (r *Runner) throttle(ctx context.Context) {
	if r.cfg.ThrottleDelay <= 0 {
		return
	}
	if r.budget.Utilization() < r.cfg.ThrottleAbove {
		return
	}
	_ = r.pause(ctx, r.cfg.ThrottleDelay)
}

func fatal(err error) bool {
	return errors.Is(err, youtube.ErrAuth) || errors.Is(err, quota.ErrExhausted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func retryable(err error) bool {
	var te *youtube.TransientError
	var rl *youtube.RateLimitError
	return errors.As(err, &te) || errors.As(err, &rl)
}
