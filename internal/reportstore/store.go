// Package reportstore persists assessments, reports, and reader feedback to
// SQLite. Persistence is best-effort from the pipeline's point of view: a
// failed write is logged by the caller and never blocks a report.
package reportstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/gabiworks/leadintel/internal/assessment"
	"github.com/gabiworks/leadintel/internal/intel"
	"github.com/gabiworks/leadintel/internal/synthesis"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("reportstore: not found")

type Store struct {
	db *sqlx.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	frozen     INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reports (
	id            TEXT PRIMARY KEY,
	assessment_id TEXT NOT NULL,
	company       TEXT NOT NULL DEFAULT '',
	sections      TEXT NOT NULL,
	metrics       TEXT NOT NULL,
	source        TEXT NOT NULL DEFAULT '',
	path          TEXT NOT NULL DEFAULT '',
	fallback_note TEXT NOT NULL DEFAULT '',
	html          TEXT NOT NULL DEFAULT '',
	generated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_assessment ON reports(assessment_id);

CREATE TABLE IF NOT EXISTS feedback (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id  TEXT NOT NULL,
	rating     INTEGER NOT NULL,
	comment    TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`

func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveAssessment(in *assessment.Input) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	frozen := 0
	if in.FrozenAt != nil {
		frozen = 1
	}
	_, err = s.db.Exec(`INSERT INTO assessments (id, payload, frozen, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload=excluded.payload, frozen=excluded.frozen, updated_at=excluded.updated_at`,
		in.ID, string(payload), frozen, in.CreatedAt.Format(time.RFC3339Nano), in.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetAssessment(id string) (*assessment.Input, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM assessments WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var in assessment.Input
	if err := json.Unmarshal([]byte(payload), &in); err != nil {
		return nil, fmt.Errorf("decode assessment %s: %w", id, err)
	}
	return &in, nil
}

func (s *Store) SaveReport(report synthesis.Report, html string) error {
	sections, err := json.Marshal(report.Sections)
	if err != nil {
		return err
	}
	metrics, err := json.Marshal(report.Metrics)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO reports (id, assessment_id, company, sections, metrics, source, path, fallback_note, html, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET sections=excluded.sections, metrics=excluded.metrics,
			source=excluded.source, path=excluded.path, fallback_note=excluded.fallback_note,
			html=excluded.html, generated_at=excluded.generated_at`,
		report.ID, report.AssessmentID, report.Company, string(sections), string(metrics),
		string(report.Source), string(report.Path), report.FallbackNote, html,
		report.GeneratedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) GetReport(id string) (synthesis.Report, string, error) {
	var (
		report                          synthesis.Report
		sectionsJSON, metricsJSON       string
		source, path, html, generatedAt string
	)
	err := s.db.QueryRow(`SELECT id, assessment_id, company, sections, metrics, source, path, fallback_note, html, generated_at
		FROM reports WHERE id = ?`, id).Scan(
		&report.ID, &report.AssessmentID, &report.Company, &sectionsJSON, &metricsJSON,
		&source, &path, &report.FallbackNote, &html, &generatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return synthesis.Report{}, "", ErrNotFound
	}
	if err != nil {
		return synthesis.Report{}, "", err
	}
	if err := json.Unmarshal([]byte(sectionsJSON), &report.Sections); err != nil {
		return synthesis.Report{}, "", fmt.Errorf("decode report %s sections: %w", id, err)
	}
	if err := json.Unmarshal([]byte(metricsJSON), &report.Metrics); err != nil {
		return synthesis.Report{}, "", fmt.Errorf("decode report %s metrics: %w", id, err)
	}
	report.Source = intel.Provenance(source)
	report.Path = synthesis.SynthesisPath(path)
	report.GeneratedAt, _ = time.Parse(time.RFC3339Nano, generatedAt)
	return report, html, nil
}

// LatestReportForAssessment returns the most recently generated report for an
// assessment.
func (s *Store) LatestReportForAssessment(assessmentID string) (synthesis.Report, string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM reports WHERE assessment_id = ? ORDER BY generated_at DESC LIMIT 1`, assessmentID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return synthesis.Report{}, "", ErrNotFound
	}
	if err != nil {
		return synthesis.Report{}, "", err
	}
	return s.GetReport(id)
}

type Feedback struct {
	ReportID  string    `json:"report_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) SaveFeedback(fb Feedback) error {
	if fb.Rating < 1 || fb.Rating > 5 {
		return fmt.Errorf("rating %d out of range [1,5]", fb.Rating)
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO feedback (report_id, rating, comment, created_at) VALUES (?, ?, ?, ?)`,
		fb.ReportID, fb.Rating, fb.Comment, fb.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *Store) FeedbackForReport(reportID string) ([]Feedback, error) {
	rows, err := s.db.Query(`SELECT report_id, rating, comment, created_at FROM feedback WHERE report_id = ? ORDER BY id`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Feedback
	for rows.Next() {
		var fb Feedback
		var createdAt string
		if err := rows.Scan(&fb.ReportID, &fb.Rating, &fb.Comment, &createdAt); err != nil {
			return nil, err
		}
		fb.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, fb)
	}
	return out, rows.Err()
}
