package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/shared/data"
)

type Discoveries struct {
	rdb *redis.Client
}

func NewDiscoveries(rdb *redis.Client) Discoveries {
	return Discoveries{rdb: rdb}
}

// Recent serves the tail of the discovery stream so dashboards can show the
// latest finds without polling MySQL.
func (h Discoveries) Recent(c *gin.Context) {
	count := int64(intQuery(c, "limit", 20))
	if count < 1 || count > 100 {
		count = 20
	}

	msgs, err := data.RecentDiscoveries(c.Request.Context(), h.rdb, count)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "stream read failed"})
		return
	}

	items := make([]gin.H, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, gin.H{"id": m.ID, "streamer": m.Values})
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
