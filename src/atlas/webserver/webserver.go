// Package webserver exposes the streamer registry over HTTP.
package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/config"
)

func New(cfg config.Atlas, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, db, rdb)
	return g
}

func attachRoutes(r *gin.Engine, cfg config.Atlas, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition"},
	}))

	streamH := NewStreamers(db)
	statsH := NewStats(db)
	discH := NewDiscoveries(rdb)

	v1 := r.Group("/v1")
	{
		v1.GET("/streamers", streamH.List)
		v1.GET("/streamers/:id", streamH.Get)
		v1.GET("/export.csv", streamH.ExportCSV)
		v1.GET("/stats", statsH.Summary)
		v1.GET("/descubrimientos", discH.Recent)
	}
}
