package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"subway/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore persists stations, lines and sections in a SQLite file.
// Writes are serialised; the sections of a line are always replaced inside
// one transaction.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex
	logger  *slog.Logger
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger.With("component", "sqlite_store"),
	}
	s.logger.Info("database ready", "path", path)
	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) CreateStation(ctx context.Context, name string) (domain.Station, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	exists, err := s.exists(ctx, s.db, "SELECT EXISTS (SELECT 1 FROM station WHERE name = ?)", name)
	if err != nil {
		return domain.Station{}, err
	}
	if exists {
		return domain.Station{}, fmt.Errorf("station %q: %w", name, ErrDuplicateName)
	}

	res, err := s.db.ExecContext(ctx, "INSERT INTO station (name) VALUES (?)", name)
	if err != nil {
		return domain.Station{}, fmt.Errorf("insert station: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Station{}, fmt.Errorf("station id: %w", err)
	}
	return domain.Station{ID: id, Name: name}, nil
}

func (s *SQLiteStore) GetStation(ctx context.Context, id int64) (domain.Station, error) {
	st := domain.Station{ID: id}
	err := s.db.QueryRowContext(ctx, "SELECT name FROM station WHERE id = ?", id).Scan(&st.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Station{}, fmt.Errorf("station %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Station{}, fmt.Errorf("query station: %w", err)
	}
	return st, nil
}

func (s *SQLiteStore) ListStations(ctx context.Context) ([]domain.Station, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM station ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	stations := []domain.Station{}
	for rows.Next() {
		var st domain.Station
		if err := rows.Scan(&st.ID, &st.Name); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	return stations, rows.Err()
}

func (s *SQLiteStore) DeleteStation(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	used, err := s.exists(ctx, s.db,
		"SELECT EXISTS (SELECT 1 FROM section WHERE up_station_id = ? OR down_station_id = ?)", id, id)
	if err != nil {
		return err
	}
	if used {
		return fmt.Errorf("station %d: %w", id, ErrStationInUse)
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM station WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete station: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("station %d", id))
}

func (s *SQLiteStore) CreateLine(ctx context.Context, line *domain.Line) (*domain.Line, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sections, err := line.Sections.Sections()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.exists(ctx, tx, "SELECT EXISTS (SELECT 1 FROM line WHERE name = ?)", line.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("line %q: %w", line.Name, ErrDuplicateName)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO line (name, color, extra_fare) VALUES (?, ?, ?)",
		line.Name, line.Color, line.ExtraFare)
	if err != nil {
		return nil, fmt.Errorf("insert line: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("line id: %w", err)
	}

	if err := insertSections(ctx, tx, id, sections); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return domain.RestoreLine(id, line.Name, line.Color, line.ExtraFare, sections)
}

func (s *SQLiteStore) GetLine(ctx context.Context, id int64) (*domain.Line, error) {
	lines, err := s.queryLines(ctx, "WHERE l.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("line %d: %w", id, ErrNotFound)
	}
	return lines[0], nil
}

// ListLines returns every line ordered by ID with its sections.
func (s *SQLiteStore) ListLines(ctx context.Context) ([]*domain.Line, error) {
	return s.queryLines(ctx, "")
}

func (s *SQLiteStore) UpdateLine(ctx context.Context, line *domain.Line) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	taken, err := s.exists(ctx, s.db,
		"SELECT EXISTS (SELECT 1 FROM line WHERE name = ? AND id <> ?)", line.Name, line.ID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("line %q: %w", line.Name, ErrDuplicateName)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE line SET name = ?, color = ?, extra_fare = ? WHERE id = ?",
		line.Name, line.Color, line.ExtraFare, line.ID)
	if err != nil {
		return fmt.Errorf("update line: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("line %d", line.ID))
}

// SaveSections replaces the stored sections of a line in one transaction.
func (s *SQLiteStore) SaveSections(ctx context.Context, line *domain.Line) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()
	sections, err := line.Sections.Sections()
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.exists(ctx, tx, "SELECT EXISTS (SELECT 1 FROM line WHERE id = ?)", line.ID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("line %d: %w", line.ID, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM section WHERE line_id = ?", line.ID); err != nil {
		return fmt.Errorf("delete sections: %w", err)
	}
	if err := insertSections(ctx, tx, line.ID, sections); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.logger.Debug("sections saved",
		"line_id", line.ID,
		"sections", len(sections),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (s *SQLiteStore) DeleteLine(ctx context.Context, id int64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM line WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete line: %w", err)
	}
	return requireAffected(res, fmt.Sprintf("line %d", id))
}

const lineQuery = `
	SELECT l.id, l.name, l.color, l.extra_fare,
	       s.id, s.distance, s.duration,
	       us.id, us.name, ds.id, ds.name
	FROM line l
	LEFT OUTER JOIN section s ON l.id = s.line_id
	LEFT OUTER JOIN station us ON s.up_station_id = us.id
	LEFT OUTER JOIN station ds ON s.down_station_id = ds.id
	%s
	ORDER BY l.id, s.id`

type lineRow struct {
	id        int64
	name      string
	color     string
	extraFare int
	sections  []domain.Section
}

// ImportNetwork writes a whole network into an empty database in one
// transaction. Station IDs in stations and in the lines' sections are
// provisional; stored IDs are assigned here. Nothing is written unless
// every row is.
func (s *SQLiteStore) ImportNetwork(ctx context.Context, stations []domain.Station, lines []*domain.Line) ([]*domain.Line, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	used, err := s.exists(ctx, tx, "SELECT EXISTS (SELECT 1 FROM station) OR EXISTS (SELECT 1 FROM line)")
	if err != nil {
		return nil, err
	}
	if used {
		return nil, ErrNotEmpty
	}

	stored := make(map[int64]domain.Station, len(stations))
	for _, st := range stations {
		res, err := tx.ExecContext(ctx, "INSERT INTO station (name) VALUES (?)", st.Name)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("station %q: %w", st.Name, ErrDuplicateName)
			}
			return nil, fmt.Errorf("insert station: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("station id: %w", err)
		}
		stored[st.ID] = domain.Station{ID: id, Name: st.Name}
	}

	created := make([]*domain.Line, 0, len(lines))
	sectionCount := 0
	for _, draft := range lines {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO line (name, color, extra_fare) VALUES (?, ?, ?)",
			draft.Name, draft.Color, draft.ExtraFare)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("line %q: %w", draft.Name, ErrDuplicateName)
			}
			return nil, fmt.Errorf("insert line: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("line id: %w", err)
		}
		line, err := remapLine(id, draft, stored)
		if err != nil {
			return nil, fmt.Errorf("line %q: %w", draft.Name, err)
		}
		sections, err := line.Sections.Sections()
		if err != nil {
			return nil, err
		}
		if err := insertSections(ctx, tx, id, sections); err != nil {
			return nil, err
		}
		sectionCount += len(sections)
		created = append(created, line)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("network imported",
		"stations", len(stored),
		"lines", len(created),
		"sections", sectionCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return created, nil
}

func (s *SQLiteStore) queryLines(ctx context.Context, where string, args ...any) ([]*domain.Line, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(lineQuery, where), args...)
	if err != nil {
		return nil, fmt.Errorf("query lines: %w", err)
	}
	defer rows.Close()

	var order []*lineRow
	byID := make(map[int64]*lineRow)
	for rows.Next() {
		var (
			r                  lineRow
			secID              sql.NullInt64
			distance, duration sql.NullInt64
			upID, downID       sql.NullInt64
			upName, downName   sql.NullString
		)
		if err := rows.Scan(&r.id, &r.name, &r.color, &r.extraFare,
			&secID, &distance, &duration,
			&upID, &upName, &downID, &downName); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}

		lr, ok := byID[r.id]
		if !ok {
			lr = &lineRow{id: r.id, name: r.name, color: r.color, extraFare: r.extraFare}
			byID[r.id] = lr
			order = append(order, lr)
		}
		if !secID.Valid {
			continue
		}
		lr.sections = append(lr.sections, domain.Section{
			ID:          secID.Int64,
			LineID:      r.id,
			UpStation:   domain.Station{ID: upID.Int64, Name: upName.String},
			DownStation: domain.Station{ID: downID.Int64, Name: downName.String},
			Distance:    int(distance.Int64),
			Duration:    int(duration.Int64),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}

	lines := make([]*domain.Line, 0, len(order))
	for _, lr := range order {
		line, err := domain.RestoreLine(lr.id, lr.name, lr.color, lr.extraFare, lr.sections)
		if err != nil {
			return nil, fmt.Errorf("restore line %d: %w", lr.id, err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var found int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return found != 0, nil
}

func insertSections(ctx context.Context, tx *sql.Tx, lineID int64, sections []domain.Section) error {
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO section (line_id, up_station_id, down_station_id, distance, duration) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare section insert: %w", err)
	}
	defer stmt.Close()

	for _, sec := range sections {
		_, err := stmt.ExecContext(ctx, lineID, sec.UpStation.ID, sec.DownStation.ID, sec.Distance, sec.Duration)
		if err != nil {
			if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
				return fmt.Errorf("section %d->%d: %w", sec.UpStation.ID, sec.DownStation.ID, ErrNotFound)
			}
			return fmt.Errorf("insert section: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}
