package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
)

type Stats struct {
	db *gorm.DB
}

func NewStats(db *gorm.DB) Stats {
	return Stats{db: db}
}

type bucket struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

func (h Stats) Summary(c *gin.Context) {
	var total int64
	if err := h.db.Model(&types.Streamer{}).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	byProvince, err := h.groupBy("province")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}
	byCategory, err := h.groupBy("category")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}
	byMethod, err := h.groupBy("method")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	var daily []types.DailyStat
	if err := h.db.Order("date DESC").Limit(30).Find(&daily).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_streamers": total,
		"por_provincia":   byProvince,
		"por_categoria":   byCategory,
		"por_metodo":      byMethod,
		"diario":          daily,
	})
}

func (h Stats) groupBy(column string) ([]bucket, error) {
	var out []bucket
	err := h.db.Model(&types.Streamer{}).
		Select(column + " AS `key`, COUNT(*) AS count").
		Where(column + " <> ''").
		Group(column).
		Order("count DESC").
		Scan(&out).Error
	return out, err
}
