// Package seed reads a subway network from three CSV files: stations.txt,
// lines.txt and sections.txt. IDs in the files are local to the seed and
// only used to link rows together.
package seed

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StationsFile = "stations.txt"
	LinesFile    = "lines.txt"
	SectionsFile = "sections.txt"
)

var ErrMissingColumn = errors.New("missing column")

type Station struct {
	ID   int64
	Name string
}

type Line struct {
	ID        int64
	Name      string
	Color     string
	ExtraFare int
}

type Section struct {
	LineID        int64
	UpStationID   int64
	DownStationID int64
	Distance      int
	Duration      int
}

type Network struct {
	Stations []Station
	Lines    []Line
	Sections []Section // file order

	// Fingerprint is the SHA-256 of the three files concatenated.
	Fingerprint string
}

// SectionsByLine groups sections per seed line ID keeping file order.
func (n *Network) SectionsByLine() map[int64][]Section {
	grouped := make(map[int64][]Section, len(n.Lines))
	for _, sec := range n.Sections {
		grouped[sec.LineID] = append(grouped[sec.LineID], sec)
	}
	return grouped
}

type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{
		logger: logger.With("component", "seed_loader"),
	}
}

func (l *Loader) LoadDir(dir string) (*Network, error) {
	return l.Load(os.DirFS(dir))
}

// Load parses all three files from fsys. Every file is required, but
// sections.txt may hold only a header.
func (l *Loader) Load(fsys fs.FS) (*Network, error) {
	totalStart := time.Now()
	network := &Network{}
	digest := sha256.New()

	files := []struct {
		name  string
		parse func(*csv.Reader, map[string]int, *Network) error
	}{
		{StationsFile, parseStations},
		{LinesFile, parseLines},
		{SectionsFile, parseSections},
	}

	for _, f := range files {
		start := time.Now()
		data, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.name, err)
		}
		digest.Write(data)

		r := csv.NewReader(bytes.NewReader(data))
		r.TrimLeadingSpace = true
		header, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("read %s header: %w", f.name, err)
		}
		if err := f.parse(r, makeIndex(header), network); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.name, err)
		}
		l.logger.Debug("parsed seed file",
			"file", f.name,
			"bytes", len(data),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}

	network.Fingerprint = hex.EncodeToString(digest.Sum(nil))

	l.logger.Info("seed parsing completed",
		"stations", len(network.Stations),
		"lines", len(network.Lines),
		"sections", len(network.Sections),
		"fingerprint", network.Fingerprint,
		"total_duration_ms", time.Since(totalStart).Milliseconds(),
	)
	return network, nil
}

func parseStations(r *csv.Reader, idx map[string]int, n *Network) error {
	if err := requireColumns(idx, "station_id", "name"); err != nil {
		return err
	}
	return eachRecord(r, func(record []string) error {
		id, err := parseInt64(record, idx, "station_id")
		if err != nil {
			return err
		}
		n.Stations = append(n.Stations, Station{
			ID:   id,
			Name: getField(record, idx, "name"),
		})
		return nil
	})
}

func parseLines(r *csv.Reader, idx map[string]int, n *Network) error {
	if err := requireColumns(idx, "line_id", "name", "color"); err != nil {
		return err
	}
	return eachRecord(r, func(record []string) error {
		id, err := parseInt64(record, idx, "line_id")
		if err != nil {
			return err
		}
		extraFare := 0
		if v := getField(record, idx, "extra_fare"); v != "" {
			if extraFare, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("extra_fare %q: %w", v, err)
			}
		}
		n.Lines = append(n.Lines, Line{
			ID:        id,
			Name:      getField(record, idx, "name"),
			Color:     getField(record, idx, "color"),
			ExtraFare: extraFare,
		})
		return nil
	})
}

func parseSections(r *csv.Reader, idx map[string]int, n *Network) error {
	if err := requireColumns(idx, "line_id", "up_station_id", "down_station_id", "distance"); err != nil {
		return err
	}
	return eachRecord(r, func(record []string) error {
		var sec Section
		var err error
		if sec.LineID, err = parseInt64(record, idx, "line_id"); err != nil {
			return err
		}
		if sec.UpStationID, err = parseInt64(record, idx, "up_station_id"); err != nil {
			return err
		}
		if sec.DownStationID, err = parseInt64(record, idx, "down_station_id"); err != nil {
			return err
		}
		if sec.Distance, err = strconv.Atoi(getField(record, idx, "distance")); err != nil {
			return fmt.Errorf("distance: %w", err)
		}
		if v := getField(record, idx, "duration"); v != "" {
			if sec.Duration, err = strconv.Atoi(v); err != nil {
				return fmt.Errorf("duration %q: %w", v, err)
			}
		}
		n.Sections = append(n.Sections, sec)
		return nil
	})
}

func eachRecord(r *csv.Reader, fn func([]string) error) error {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			line, _ := r.FieldPos(0)
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

func requireColumns(idx map[string]int, names ...string) error {
	for _, name := range names {
		if _, ok := idx[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return nil
}

func parseInt64(record []string, idx map[string]int, field string) (int64, error) {
	v := getField(record, idx, field)
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", field, v, err)
	}
	return id, nil
}

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}
