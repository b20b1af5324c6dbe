// Exportador writes the streamer registry to CSV, optionally folding in
// legacy exports from earlier collection tools. Database rows win over
// legacy rows with the same channel ID.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/components/export"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/shared/data"
)

func main() {
	out := flag.String("out", "data/streamers_argentinos.csv", "output CSV path")
	flag.Parse()

	_ = godotenv.Load()

	db := data.MustMySQL(data.GetMySQLDSN())

	var current []types.Streamer
	if err := db.WithContext(context.Background()).
		Order("subscribers DESC").Find(&current).Error; err != nil {
		log.Fatalf("load streamers: %v", err)
	}
	log.Printf("Loaded %d streamers from database", len(current))

	sets := [][]types.Streamer{current}
	for _, path := range flag.Args() {
		legacy, err := readLegacy(path)
		if err != nil {
			log.Fatalf("read %s: %v", path, err)
		}
		log.Printf("Loaded %d rows from %s", len(legacy), path)
		sets = append(sets, legacy)
	}

	merged := export.Merge(sets...)

	if dir := filepath.Dir(*out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("create %s: %v", dir, err)
		}
	}
	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("create %s: %v", *out, err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, merged); err != nil {
		log.Fatalf("write csv: %v", err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("close %s: %v", *out, err)
	}

	dupes := 0
	for _, set := range sets {
		dupes += len(set)
	}
	dupes -= len(merged)
	log.Printf("Wrote %d streamers to %s (%d duplicates dropped)", len(merged), *out, dupes)
}

func readLegacy(path string) ([]types.Streamer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := export.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return rows, nil
}
