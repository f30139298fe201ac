// Package state persists consultation history: who was diagnosed with
// what, which symptoms were reported, which rules fired, and the full
// inference trace. SQLite is the default backend; Postgres is available
// for shared deployments.
package state

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Store is the consultation history interface implemented by the SQLite
// and Postgres backends.
type Store interface {
	Open(dsn string) error
	Close() error
	Migrate() error

	SaveConsultation(c *Consultation) error
	GetConsultation(id string) (*Consultation, error)
	SearchConsultations(f Filter) ([]*Consultation, error)
	DeleteConsultation(id string) error

	Statistics() (*Statistics, error)
	RuleUsage() ([]RuleUsage, error)
}

// ReportedSymptom is one symptom the user reported, with the certainty
// they assigned to it.
type ReportedSymptom struct {
	SymptomID string  `json:"symptom_id"`
	Name      string  `json:"name,omitempty"`
	CF        float64 `json:"cf"`
}

// TraceStep is one persisted inference step.
type TraceStep struct {
	Step      int     `json:"step"`
	RuleID    string  `json:"rule"`
	Derived   string  `json:"derived"`
	CFBefore  float64 `json:"cf_before"`
	DeltaCF   float64 `json:"delta_cf"`
	CFAfter   float64 `json:"cf_after"`
	MatchedIf string  `json:"matched_if"`
}

// Consultation is one completed diagnosis session.
type Consultation struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	PatientName string    `json:"patient_name,omitempty"`
	Species     string    `json:"species,omitempty"`
	Notes       string    `json:"notes,omitempty"`

	Symptoms []ReportedSymptom `json:"symptoms"`

	DiseaseID      string  `json:"disease_id,omitempty"`
	DiseaseName    string  `json:"disease_name,omitempty"`
	CF             float64 `json:"cf"`
	Method         string  `json:"method"`
	Recommendation string  `json:"recommendation,omitempty"`

	UsedRules     []string    `json:"used_rules,omitempty"`
	ReasoningPath string      `json:"reasoning_path,omitempty"`
	Trace         []TraceStep `json:"trace,omitempty"`
}

// Conclusive reports whether the session ended in a diagnosis.
func (c *Consultation) Conclusive() bool {
	return c.DiseaseID != ""
}

// Filter narrows a history search. Zero values mean "no constraint".
type Filter struct {
	// Query matches the consultation ID or disease name, case-insensitive.
	Query     string
	DiseaseID string
	Species   string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// DiseaseCount is one entry of the per-disease consultation tally.
type DiseaseCount struct {
	DiseaseID   string `json:"disease_id"`
	DiseaseName string `json:"disease_name"`
	Count       int    `json:"count"`
}

// Statistics summarizes the consultation history.
type Statistics struct {
	TotalConsultations int            `json:"total_consultations"`
	Conclusive         int            `json:"conclusive"`
	UniqueDiseases     int            `json:"unique_diseases"`
	TopDiseases        []DiseaseCount `json:"top_diseases"`
	Latest             *Consultation  `json:"latest_consultation,omitempty"`
}

// RuleUsage is the aggregate firing count of one rule across all
// consultations.
type RuleUsage struct {
	RuleID      string    `json:"rule_id"`
	FiredCount  int       `json:"fired_count"`
	LastFiredAt time.Time `json:"last_fired_at"`
}

// timeFormat is how timestamps are stored. RFC3339 in UTC sorts
// lexicographically, so both backends can order and range-filter on the
// raw column.
const timeFormat = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}

// dbStore holds the SQL shared by both backends. rebind translates the
// ?-style placeholders to whatever the driver expects.
type dbStore struct {
	db     *sql.DB
	rebind func(query string) string
}

func (s *dbStore) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *dbStore) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *dbStore) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

// SaveConsultation inserts the consultation and its symptom, rule, and
// trace rows in one transaction, and bumps the per-rule usage counters.
// A missing ID or CreatedAt is filled in.
func (s *dbStore) SaveConsultation(c *Consultation) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Method == "" {
		c.Method = "forward"
	}
	if c.ReasoningPath == "" && len(c.UsedRules) > 0 {
		c.ReasoningPath = strings.Join(c.UsedRules, " -> ")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(s.rebind(
		`INSERT INTO consultations
			(id, created_at, patient_name, species, notes, disease_id, disease_name,
			 cf, method, recommendation, reasoning_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		c.ID, formatTime(c.CreatedAt), c.PatientName, c.Species, c.Notes,
		c.DiseaseID, c.DiseaseName, c.CF, c.Method, c.Recommendation, c.ReasoningPath,
	)
	if err != nil {
		return fmt.Errorf("failed to insert consultation: %w", err)
	}

	for _, sym := range c.Symptoms {
		if _, err := tx.Exec(s.rebind(
			`INSERT INTO consultation_symptoms (consultation_id, symptom_id, name, cf)
			 VALUES (?, ?, ?, ?)`),
			c.ID, sym.SymptomID, sym.Name, sym.CF,
		); err != nil {
			return fmt.Errorf("failed to insert consultation symptom: %w", err)
		}
	}

	for i, rid := range c.UsedRules {
		if _, err := tx.Exec(s.rebind(
			`INSERT INTO consultation_rules (consultation_id, position, rule_id)
			 VALUES (?, ?, ?)`),
			c.ID, i, rid,
		); err != nil {
			return fmt.Errorf("failed to insert consultation rule: %w", err)
		}
	}

	for _, step := range c.Trace {
		if _, err := tx.Exec(s.rebind(
			`INSERT INTO trace_steps
				(consultation_id, step, rule_id, derived, cf_before, delta_cf, cf_after, matched_if)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			c.ID, step.Step, step.RuleID, step.Derived,
			step.CFBefore, step.DeltaCF, step.CFAfter, step.MatchedIf,
		); err != nil {
			return fmt.Errorf("failed to insert trace step: %w", err)
		}
	}

	firedAt := formatTime(c.CreatedAt)
	for rid, n := range ruleCounts(c.UsedRules) {
		if _, err := tx.Exec(s.rebind(
			`INSERT INTO rule_usage (rule_id, fired_count, last_fired_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT (rule_id) DO UPDATE SET
				fired_count = rule_usage.fired_count + excluded.fired_count,
				last_fired_at = excluded.last_fired_at`),
			rid, n, firedAt,
		); err != nil {
			return fmt.Errorf("failed to update rule usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit consultation: %w", err)
	}
	return nil
}

// GetConsultation loads one consultation with its symptoms, rules, and
// trace.
func (s *dbStore) GetConsultation(id string) (*Consultation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	c := &Consultation{}
	var createdAt string
	err := s.queryRow(
		`SELECT id, created_at, patient_name, species, notes, disease_id,
			disease_name, cf, method, recommendation, reasoning_path
		 FROM consultations WHERE id = ?`, id,
	).Scan(&c.ID, &createdAt, &c.PatientName, &c.Species, &c.Notes,
		&c.DiseaseID, &c.DiseaseName, &c.CF, &c.Method, &c.Recommendation,
		&c.ReasoningPath)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("consultation not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse consultation timestamp: %w", err)
	}

	if c.Symptoms, err = s.consultationSymptoms(id); err != nil {
		return nil, err
	}
	if c.UsedRules, err = s.consultationRules(id); err != nil {
		return nil, err
	}
	if c.Trace, err = s.consultationTrace(id); err != nil {
		return nil, err
	}
	return c, nil
}

// SearchConsultations returns consultations matching the filter, newest
// first. The per-consultation detail rows are loaded too.
func (s *dbStore) SearchConsultations(f Filter) ([]*Consultation, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	query := `SELECT id FROM consultations`
	var conds []string
	var args []any

	if f.Query != "" {
		conds = append(conds, `(LOWER(id) LIKE ? OR LOWER(disease_name) LIKE ?)`)
		like := "%" + strings.ToLower(f.Query) + "%"
		args = append(args, like, like)
	}
	if f.DiseaseID != "" {
		conds = append(conds, `disease_id = ?`)
		args = append(args, f.DiseaseID)
	}
	if f.Species != "" {
		conds = append(conds, `species = ?`)
		args = append(args, f.Species)
	}
	if !f.From.IsZero() {
		conds = append(conds, `created_at >= ?`)
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		conds = append(conds, `created_at <= ?`)
		args = append(args, formatTime(f.To))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, f.Offset)
	}

	rows, err := s.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search consultations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan consultation id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate consultations: %w", err)
	}

	out := make([]*Consultation, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetConsultation(id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// DeleteConsultation removes one consultation and its detail rows.
func (s *dbStore) DeleteConsultation(id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	res, err := s.exec(`DELETE FROM consultations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete consultation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("consultation not found: %s", id)
	}
	return nil
}

// Statistics aggregates the history: totals, per-disease tallies, and the
// latest consultation.
func (s *dbStore) Statistics() (*Statistics, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	stats := &Statistics{}
	err := s.queryRow(
		`SELECT COUNT(*),
			COUNT(CASE WHEN disease_id <> '' THEN 1 END),
			COUNT(DISTINCT CASE WHEN disease_id <> '' THEN disease_id END)
		 FROM consultations`,
	).Scan(&stats.TotalConsultations, &stats.Conclusive, &stats.UniqueDiseases)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate consultations: %w", err)
	}

	rows, err := s.query(
		`SELECT disease_id, disease_name, COUNT(*) AS n
		 FROM consultations
		 WHERE disease_id <> ''
		 GROUP BY disease_id, disease_name
		 ORDER BY n DESC, disease_id
		 LIMIT 5`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rank diseases: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var dc DiseaseCount
		if err := rows.Scan(&dc.DiseaseID, &dc.DiseaseName, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan disease count: %w", err)
		}
		stats.TopDiseases = append(stats.TopDiseases, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate disease counts: %w", err)
	}

	var latestID string
	err = s.queryRow(
		`SELECT id FROM consultations ORDER BY created_at DESC, id LIMIT 1`,
	).Scan(&latestID)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find latest consultation: %w", err)
	}
	if latestID != "" {
		if stats.Latest, err = s.GetConsultation(latestID); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

// RuleUsage returns the aggregate rule firing counts, most used first.
func (s *dbStore) RuleUsage() ([]RuleUsage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.query(
		`SELECT rule_id, fired_count, last_fired_at
		 FROM rule_usage ORDER BY fired_count DESC, rule_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query rule usage: %w", err)
	}
	defer rows.Close()

	var out []RuleUsage
	for rows.Next() {
		var ru RuleUsage
		var lastFired string
		if err := rows.Scan(&ru.RuleID, &ru.FiredCount, &lastFired); err != nil {
			return nil, fmt.Errorf("failed to scan rule usage: %w", err)
		}
		if ru.LastFiredAt, err = parseTime(lastFired); err != nil {
			return nil, fmt.Errorf("failed to parse rule usage timestamp: %w", err)
		}
		out = append(out, ru)
	}
	return out, rows.Err()
}

func (s *dbStore) consultationSymptoms(id string) ([]ReportedSymptom, error) {
	rows, err := s.query(
		`SELECT symptom_id, name, cf FROM consultation_symptoms
		 WHERE consultation_id = ? ORDER BY symptom_id`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultation symptoms: %w", err)
	}
	defer rows.Close()

	var out []ReportedSymptom
	for rows.Next() {
		var sym ReportedSymptom
		if err := rows.Scan(&sym.SymptomID, &sym.Name, &sym.CF); err != nil {
			return nil, fmt.Errorf("failed to scan consultation symptom: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func (s *dbStore) consultationRules(id string) ([]string, error) {
	rows, err := s.query(
		`SELECT rule_id FROM consultation_rules
		 WHERE consultation_id = ? ORDER BY position`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query consultation rules: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var rid string
		if err := rows.Scan(&rid); err != nil {
			return nil, fmt.Errorf("failed to scan consultation rule: %w", err)
		}
		out = append(out, rid)
	}
	return out, rows.Err()
}

func (s *dbStore) consultationTrace(id string) ([]TraceStep, error) {
	rows, err := s.query(
		`SELECT step, rule_id, derived, cf_before, delta_cf, cf_after, matched_if
		 FROM trace_steps WHERE consultation_id = ? ORDER BY step`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace steps: %w", err)
	}
	defer rows.Close()

	var out []TraceStep
	for rows.Next() {
		var step TraceStep
		if err := rows.Scan(&step.Step, &step.RuleID, &step.Derived,
			&step.CFBefore, &step.DeltaCF, &step.CFAfter, &step.MatchedIf); err != nil {
			return nil, fmt.Errorf("failed to scan trace step: %w", err)
		}
		out = append(out, step)
	}
	return out, rows.Err()
}

func ruleCounts(usedRules []string) map[string]int {
	out := make(map[string]int, len(usedRules))
	for _, rid := range usedRules {
		out[rid]++
	}
	return out
}
