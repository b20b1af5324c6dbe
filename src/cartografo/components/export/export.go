// Package export renders the streamer registry as CSV and merges legacy
// exports back into a single deduplicated set.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PobleteFerreira/cartografia-streaming-argentino-FULL/src/cartografo/types"
)

var csvHeader = []string{
	"canal_id", "nombre", "categoria", "provincia", "provincias_alternativas",
	"suscriptores", "certeza", "metodo", "indicadores", "url", "fecha_alta",
}

var spaceRun = regexp.MustCompile(`\s+`)

// CleanText flattens newlines and tabs so descriptions and indicator lists
// stay on one CSV row no matter what the channel author typed.
func CleanText(s string) string {
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func row(s types.Streamer) []string {
	date := ""
	if !s.CreatedAt.IsZero() {
		date = s.CreatedAt.Format("2006-01-02")
	}
	return []string{
		s.ChannelID,
		CleanText(s.Name),
		CleanText(s.Category),
		CleanText(s.Province),
		CleanText(s.ProvinceOthers),
		strconv.FormatInt(s.Subscribers, 10),
		strconv.Itoa(s.Certainty),
		s.Method,
		CleanText(s.Indicators),
		s.URL,
		date,
	}
}

// WriteCSV writes the set sorted by subscriber count, biggest first.
func WriteCSV(w io.Writer, streamers []types.Streamer) error {
	sorted := make([]types.Streamer, len(streamers))
	copy(sorted, streamers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Subscribers > sorted[j].Subscribers
	})

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range sorted {
		if err := cw.Write(row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a previous export. Column order follows the header row, so
// files from older runs with extra or reordered columns still load.
func ReadCSV(r io.Reader) ([]types.Streamer, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := col["canal_id"]; !ok {
		return nil, fmt.Errorf("missing canal_id column")
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var out []types.Streamer
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		s := types.Streamer{
			ChannelID:      field(rec, "canal_id"),
			Name:           field(rec, "nombre"),
			Category:       field(rec, "categoria"),
			Province:       field(rec, "provincia"),
			ProvinceOthers: field(rec, "provincias_alternativas"),
			Method:         field(rec, "metodo"),
			Indicators:     field(rec, "indicadores"),
			URL:            field(rec, "url"),
		}
		if s.ChannelID == "" {
			continue
		}
		s.Subscribers, _ = strconv.ParseInt(field(rec, "suscriptores"), 10, 64)
		s.Certainty, _ = strconv.Atoi(field(rec, "certeza"))
		if d := field(rec, "fecha_alta"); d != "" {
			s.CreatedAt, _ = time.Parse("2006-01-02", d)
		}
		out = append(out, s)
	}
	return out, nil
}

// Merge concatenates the sets and drops duplicate channel IDs, keeping the
// first occurrence. Pass the authoritative set first.
func Merge(sets ...[]types.Streamer) []types.Streamer {
	seen := make(map[string]struct{})
	var out []types.Streamer
	for _, set := range sets {
		for _, s := range set {
			if _, ok := seen[s.ChannelID]; ok {
				continue
			}
			seen[s.ChannelID] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
