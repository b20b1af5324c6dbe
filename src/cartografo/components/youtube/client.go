// Package youtube is the paginated search and channel-lookup client. Every
// real API call is debited against the shared daily budget before the
// request goes out; cached pages are free.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/quota"
)

const (
	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
	defaultTimeout = 30 * time.Second

	// Quota units per call, per the API pricing: one for a search page,
	// three for a full channel lookup.
	SearchCost = 1
	DetailCost = 3

	pageSize        = 50
	recentVideosMax = 10
)

// Channel is one raw search result. Ephemeral: it is never persisted as-is.
type Channel struct {
	ChannelID   string `json:"channelId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PublishedAt string `json:"publishedAt"`
}

// Page is one page of channel search results.
type Page struct {
	Channels      []Channel `json:"channels"`
	NextPageToken string    `json:"nextPageToken"`
	FromCache     bool      `json:"-"`
}

// Video is one recent upload; its text widens what the classifier sees.
type Video struct {
	Title       string
	Description string
}

// Detail is the full channel lookup used before classification.
type Detail struct {
	ChannelID   string
	Title       string
	Description string
	PublishedAt string
	Subscribers int64
}

type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	budget     *quota.Budget
	cache      *PageCache
}

// New builds a client. cache may be nil (every page then hits the network).
func New(cfg Config, budget *quota.Budget, cache *PageCache) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		budget:     budget,
		cache:      cache,
	}
}

// SearchPage fetches one page of channel results for term. pageToken is
// empty for the first page.
func (c *Client) SearchPage(ctx context.Context, term, pageToken string) (*Page, error) {
	if c.cache != nil {
		if page, ok := c.cache.Get(ctx, term, pageToken); ok {
			page.FromCache = true
			return page, nil
		}
	}

	if err := c.debit(SearchCost); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("maxResults", strconv.Itoa(pageSize))
	q.Set("q", term)
	q.Set("regionCode", "AR")
	q.Set("key", c.cfg.APIKey)
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	body, err := c.get(ctx, "/search", q)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		NextPageToken string `json:"nextPageToken"`
		Items         []struct {
			ID struct {
				ChannelID string `json:"channelId"`
			} `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				PublishedAt string `json:"publishedAt"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("search %q: decode: %w", term, err)
	}

	page := &Page{NextPageToken: parsed.NextPageToken}
	for _, item := range parsed.Items {
		page.Channels = append(page.Channels, Channel{
			ChannelID:   item.ID.ChannelID,
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}

	if c.cache != nil {
		c.cache.Put(ctx, term, pageToken, page)
	}
	return page, nil
}

// ChannelDetail looks up subscriber count and the full description for one
// channel. Costs DetailCost units.
func (c *Client) ChannelDetail(ctx context.Context, channelID string) (*Detail, error) {
	if err := c.debit(DetailCost); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", channelID)
	q.Set("key", c.cfg.APIKey)

	body, err := c.get(ctx, "/channels", q)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				PublishedAt string `json:"publishedAt"`
			} `json:"snippet"`
			Statistics struct {
				SubscriberCount       string `json:"subscriberCount"`
				HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
			} `json:"statistics"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("channel %s: decode: %w", channelID, err)
	}
	if len(parsed.Items) == 0 {
		return nil, nil
	}

	item := parsed.Items[0]
	subs := int64(0)
	if !item.Statistics.HiddenSubscriberCount {
		subs, _ = strconv.ParseInt(item.Statistics.SubscriberCount, 10, 64)
	}

	return &Detail{
		ChannelID:   item.ID,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		PublishedAt: item.Snippet.PublishedAt,
		Subscribers: subs,
	}, nil
}

// HasStreaming reports whether the channel has a live or scheduled stream.
// Costs SearchCost per event lookup; upcoming is only checked when the live
// lookup comes back empty.
func (c *Client) HasStreaming(ctx context.Context, channelID string) (bool, error) {
	for _, eventType := range []string{"live", "upcoming"} {
		found, err := c.eventSearch(ctx, channelID, eventType)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) eventSearch(ctx context.Context, channelID, eventType string) (bool, error) {
	if err := c.debit(SearchCost); err != nil {
		return false, err
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("channelId", channelID)
	q.Set("eventType", eventType)
	q.Set("maxResults", "1")
	q.Set("key", c.cfg.APIKey)

	body, err := c.get(ctx, "/search", q)
	if err != nil {
		return false, err
	}

	var parsed struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return false, fmt.Errorf("event search %s %s: decode: %w", channelID, eventType, err)
	}
	return len(parsed.Items) > 0, nil
}

// RecentVideos returns the channel's latest uploads, newest first. Costs
// SearchCost units.
func (c *Client) RecentVideos(ctx context.Context, channelID string) ([]Video, error) {
	if err := c.debit(SearchCost); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "video")
	q.Set("channelId", channelID)
	q.Set("order", "date")
	q.Set("maxResults", strconv.Itoa(recentVideosMax))
	q.Set("key", c.cfg.APIKey)

	body, err := c.get(ctx, "/search", q)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Items []struct {
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("recent videos %s: decode: %w", channelID, err)
	}

	var videos []Video
	for _, item := range parsed.Items {
		videos = append(videos, Video{
			Title:       item.Snippet.Title,
			Description: item.Snippet.Description,
		})
	}
	return videos, nil
}

func (c *Client) debit(units int) error {
	warn, err := c.budget.TryDebit(units)
	if err != nil {
		return err
	}
	if warn {
		log.Printf("quota warning: %d units consumed (%.0f%% of daily limit)",
			c.budget.Consumed(), c.budget.Utilization()*100)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Err: err}
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	return nil, classifyStatus(resp.StatusCode, body)
}

// classifyStatus maps upstream failures onto the fetch error taxonomy.
func classifyStatus(status int, body []byte) error {
	var apiErr struct {
		Error struct {
			Errors []struct {
				Reason string `json:"reason"`
			} `json:"errors"`
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)

	reason := ""
	if len(apiErr.Error.Errors) > 0 {
		reason = apiErr.Error.Errors[0].Reason
	}

	switch {
	case status == http.StatusUnauthorized,
		strings.Contains(reason, "keyInvalid"),
		strings.Contains(reason, "accessNotConfigured"):
		return ErrAuth
	case strings.Contains(reason, "quotaExceeded"),
		strings.Contains(reason, "rateLimitExceeded"),
		status == http.StatusTooManyRequests:
		return &RateLimitError{Reason: reason}
	case status >= 500:
		return &TransientError{Status: status}
	case status == http.StatusForbidden:
		return ErrAuth
	default:
		return &TransientError{Status: status}
	}
}
