package webserver

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/export"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
)

var channelIDRe = regexp.MustCompile(`^UC[a-zA-Z0-9_-]{22}$`)

type Streamers struct {
	db *gorm.DB
}

func NewStreamers(db *gorm.DB) Streamers {
	return Streamers{db: db}
}

func (h Streamers) List(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	q := h.db.Model(&types.Streamer{})
	if p := c.Query("provincia"); p != "" {
		q = q.Where("province = ?", p)
	}
	if cat := c.Query("categoria"); cat != "" {
		q = q.Where("category = ?", cat)
	}
	if mc := intQuery(c, "min_certeza", 0); mc > 0 {
		q = q.Where("certainty >= ?", mc)
	}
	if ms := intQuery(c, "min_suscriptores", 0); ms > 0 {
		q = q.Where("subscribers >= ?", ms)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	var items []types.Streamer
	err := q.Order("subscribers DESC").Limit(limit).Offset(offset).Find(&items).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h Streamers) Get(c *gin.Context) {
	id := c.Param("id")
	if !channelIDRe.MatchString(id) {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid channel id"})
		return
	}

	var s types.Streamer
	err := h.db.First(&s, "channel_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h Streamers) ExportCSV(c *gin.Context) {
	var all []types.Streamer
	if err := h.db.Order("subscribers DESC").Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="streamers_argentinos.csv"`)
	if err := export.WriteCSV(c.Writer, all); err != nil {
		// Headers are out the door; nothing left to do but log via gin.
		_ = c.Error(err)
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
