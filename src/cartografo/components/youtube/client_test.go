package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/quota"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, budget *quota.Budget) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "test-key", BaseURL: srv.URL}, budget, nil)
}

func TestSearchPageParsesResults(t *testing.T) {
	var gotQuery string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{
			"nextPageToken": "CAUQAA",
			"items": [
				{"id": {"channelId": "UC111"}, "snippet": {"title": "El Bunker MZA", "description": "Charlas todos los lunes 20hs", "publishedAt": "2020-01-01T00:00:00Z"}},
				{"id": {"channelId": "UC222"}, "snippet": {"title": "Gaming Salta", "description": "", "publishedAt": "2021-06-01T00:00:00Z"}}
			]
		}`))
	}

	budget := quota.NewBudget(10, 0.8)
	c := newTestClient(t, handler, budget)

	page, err := c.SearchPage(context.Background(), "streaming mendoza", "")
	require.NoError(t, err)
	assert.Equal(t, "streaming mendoza", gotQuery)
	require.Len(t, page.Channels, 2)
	assert.Equal(t, "UC111", page.Channels[0].ChannelID)
	assert.Equal(t, "El Bunker MZA", page.Channels[0].Title)
	assert.Equal(t, "CAUQAA", page.NextPageToken)
	assert.False(t, page.FromCache)

	// One search page costs one unit.
	assert.Equal(t, SearchCost, budget.Consumed())
}

func TestChannelDetailCostsThreeUnits(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [{
				"id": "UC111",
				"snippet": {"title": "El Bunker MZA", "description": "vos sabés", "publishedAt": "2020-01-01T00:00:00Z"},
				"statistics": {"subscriberCount": "12345", "hiddenSubscriberCount": false}
			}]
		}`))
	}

	budget := quota.NewBudget(10, 0.8)
	c := newTestClient(t, handler, budget)

	detail, err := c.ChannelDetail(context.Background(), "UC111")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, int64(12345), detail.Subscribers)
	assert.Equal(t, DetailCost, budget.Consumed())
}

func TestHiddenSubscriberCount(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"id": "UC1", "snippet": {"title": "x"}, "statistics": {"hiddenSubscriberCount": true}}]}`))
	}
	c := newTestClient(t, handler, quota.NewBudget(10, 0.8))

	detail, err := c.ChannelDetail(context.Background(), "UC1")
	require.NoError(t, err)
	assert.Zero(t, detail.Subscribers)
}

func TestHasStreamingStopsAtLiveHit(t *testing.T) {
	var eventTypes []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		eventTypes = append(eventTypes, r.URL.Query().Get("eventType"))
		w.Write([]byte(`{"items": [{"id": {"videoId": "v1"}}]}`))
	}

	budget := quota.NewBudget(10, 0.8)
	c := newTestClient(t, handler, budget)

	found, err := c.HasStreaming(context.Background(), "UC111")
	require.NoError(t, err)
	assert.True(t, found)
	// Live hit: the upcoming lookup never runs, one unit spent.
	assert.Equal(t, []string{"live"}, eventTypes)
	assert.Equal(t, SearchCost, budget.Consumed())
}

func TestHasStreamingFallsBackToUpcoming(t *testing.T) {
	var eventTypes []string
	handler := func(w http.ResponseWriter, r *http.Request) {
		et := r.URL.Query().Get("eventType")
		eventTypes = append(eventTypes, et)
		if et == "upcoming" {
			w.Write([]byte(`{"items": [{"id": {"videoId": "v2"}}]}`))
			return
		}
		w.Write([]byte(`{"items": []}`))
	}

	budget := quota.NewBudget(10, 0.8)
	c := newTestClient(t, handler, budget)

	found, err := c.HasStreaming(context.Background(), "UC111")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"live", "upcoming"}, eventTypes)
	assert.Equal(t, 2*SearchCost, budget.Consumed())
}

func TestHasStreamingFalseWhenNoEventsFound(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}
	c := newTestClient(t, handler, quota.NewBudget(10, 0.8))

	found, err := c.HasStreaming(context.Background(), "UC111")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRecentVideosParsesAndCosts(t *testing.T) {
	var gotOrder string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotOrder = r.URL.Query().Get("order")
		w.Write([]byte(`{"items": [
			{"snippet": {"title": "en vivo desde el bunker", "description": "los lunes 21hs"}},
			{"snippet": {"title": "resumen fecha 3", "description": ""}}
		]}`))
	}

	budget := quota.NewBudget(10, 0.8)
	c := newTestClient(t, handler, budget)

	videos, err := c.RecentVideos(context.Background(), "UC111")
	require.NoError(t, err)
	assert.Equal(t, "date", gotOrder)
	require.Len(t, videos, 2)
	assert.Equal(t, "en vivo desde el bunker", videos[0].Title)
	assert.Equal(t, SearchCost, budget.Consumed())
}

func TestExhaustedBudgetBlocksBeforeNetwork(t *testing.T) {
	called := false
	handler := func(w http.ResponseWriter, r *http.Request) { called = true }

	budget := quota.NewBudget(0, 0.8)
	c := newTestClient(t, handler, budget)

	_, err := c.SearchPage(context.Background(), "argentina", "")
	require.True(t, errors.Is(err, quota.ErrExhausted))
	assert.False(t, called, "no HTTP call may happen once the budget is gone")
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "quota exceeded is a rate limit",
			status: http.StatusForbidden,
			body:   `{"error": {"errors": [{"reason": "quotaExceeded"}]}}`,
			check: func(t *testing.T, err error) {
				var rl *RateLimitError
				assert.True(t, errors.As(err, &rl))
			},
		},
		{
			name:   "invalid key is fatal",
			status: http.StatusBadRequest,
			body:   `{"error": {"errors": [{"reason": "keyInvalid"}]}}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrAuth))
			},
		},
		{
			name:   "unauthorized is fatal",
			status: http.StatusUnauthorized,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, ErrAuth))
			},
		},
		{
			name:   "server error is transient",
			status: http.StatusBadGateway,
			body:   `upstream exploded`,
			check: func(t *testing.T, err error) {
				var te *TransientError
				assert.True(t, errors.As(err, &te))
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}, quota.NewBudget(100, 0.8))

			_, err := c.SearchPage(context.Background(), "x", "")
			require.Error(t, err)
			tc.check(t, err)
		})
	}
}

func TestCacheKeyStableAndDistinct(t *testing.T) {
	assert.Equal(t, cacheKey("a", "p1"), cacheKey("a", "p1"))
	assert.NotEqual(t, cacheKey("a", "p1"), cacheKey("a", "p2"))
	assert.NotEqual(t, cacheKey("ab", "c"), cacheKey("a", "bc"))
}
