package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/atlas/webserver"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/config"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/shared/data"
)

func main() {
	_ = godotenv.Load()

	db := data.MustMySQL(data.GetMySQLDSN())
	cfg := config.LoadAtlas(db)
	rdb := data.MustRedis(cfg.RedisURL)

	router := webserver.New(cfg, db, rdb)

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Atlas API listening on %s", cfg.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutCtx)
}
