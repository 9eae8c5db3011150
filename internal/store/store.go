// Package store persists generated study artifacts in SQLite.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pavelanni/studyplanner/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS syllabi (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		raw TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam TEXT NOT NULL,
		end_date TEXT NOT NULL,
		source TEXT NOT NULL,
		days TEXT NOT NULL DEFAULT '',
		raw TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam TEXT NOT NULL,
		questions TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS quiz_attempts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		exam TEXT NOT NULL,
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		percentage REAL NOT NULL,
		grade TEXT NOT NULL,
		missed TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		FOREIGN KEY (quiz_id) REFERENCES quizzes(id)
	);

	CREATE TABLE IF NOT EXISTS planner_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveSyllabus stores a generated syllabus. The structured content may be
// empty when only raw text was available.
func (s *Store) SaveSyllabus(exam string, syllabus model.Syllabus, raw string) (int64, error) {
	content := ""
	if syllabus != nil {
		data, err := json.Marshal(syllabus)
		if err != nil {
			return 0, err
		}
		content = string(data)
	}
	res, err := s.db.Exec(
		`INSERT INTO syllabi (exam, content, raw, created_at) VALUES (?, ?, ?, ?)`,
		exam, content, raw, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// LatestSyllabus returns the most recent stored syllabus for an exam, or nil
// when none exists.
func (s *Store) LatestSyllabus(exam string) (*model.SyllabusRecord, error) {
	var rec model.SyllabusRecord
	var content string
	err := s.db.QueryRow(
		`SELECT id, exam, content, raw, created_at FROM syllabi WHERE exam = ? ORDER BY id DESC LIMIT 1`,
		exam,
	).Scan(&rec.ID, &rec.Exam, &content, &rec.Raw, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if content != "" {
		if err := json.Unmarshal([]byte(content), &rec.Syllabus); err != nil {
			return nil, fmt.Errorf("decode stored syllabus %d: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

// SavePlan stores a study plan record.
func (s *Store) SavePlan(rec model.PlanRecord) (int64, error) {
	days := ""
	if rec.Days != nil {
		data, err := json.Marshal(rec.Days)
		if err != nil {
			return 0, err
		}
		days = string(data)
	}
	res, err := s.db.Exec(
		`INSERT INTO plans (exam, end_date, source, days, raw, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Exam, rec.EndDate, rec.Source, days, rec.Raw, time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPlans returns all stored plans, newest first.
func (s *Store) ListPlans() ([]model.PlanRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, exam, end_date, source, days, raw, created_at FROM plans ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []model.PlanRecord
	for rows.Next() {
		var rec model.PlanRecord
		var days string
		if err := rows.Scan(&rec.ID, &rec.Exam, &rec.EndDate, &rec.Source, &days, &rec.Raw, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if days != "" {
			if err := json.Unmarshal([]byte(days), &rec.Days); err != nil {
				return nil, fmt.Errorf("decode stored plan %d: %w", rec.ID, err)
			}
		}
		plans = append(plans, rec)
	}
	return plans, rows.Err()
}

// SaveQuiz stores a generated quiz.
func (s *Store) SaveQuiz(exam string, q model.Quiz) (int64, error) {
	data, err := json.Marshal(q)
	if err != nil {
		return 0, err
	}
	res, err := s.db.Exec(
		`INSERT INTO quizzes (exam, questions, created_at) VALUES (?, ?, ?)`,
		exam, string(data), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetQuiz returns a stored quiz by ID.
func (s *Store) GetQuiz(id int64) (model.QuizRecord, error) {
	var rec model.QuizRecord
	var questions string
	err := s.db.QueryRow(
		`SELECT id, exam, questions, created_at FROM quizzes WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Exam, &questions, &rec.CreatedAt)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal([]byte(questions), &rec.Quiz); err != nil {
		return rec, fmt.Errorf("decode stored quiz %d: %w", rec.ID, err)
	}
	return rec, nil
}

// SaveAttempt stores a scored quiz attempt.
func (s *Store) SaveAttempt(a model.QuizAttempt) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO quiz_attempts (quiz_id, exam, score, total, percentage, grade, missed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.QuizID, a.Exam, a.Score, a.Total, a.Percentage, a.Grade,
		strings.Join(a.MissedTopics, "\n"), time.Now(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListAttempts returns all stored attempts, newest first.
func (s *Store) ListAttempts() ([]model.QuizAttempt, error) {
	rows, err := s.db.Query(
		`SELECT id, quiz_id, exam, score, total, percentage, grade, missed, created_at
		 FROM quiz_attempts ORDER BY id DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []model.QuizAttempt
	for rows.Next() {
		var a model.QuizAttempt
		var missed string
		if err := rows.Scan(&a.ID, &a.QuizID, &a.Exam, &a.Score, &a.Total, &a.Percentage, &a.Grade, &missed, &a.CreatedAt); err != nil {
			return nil, err
		}
		if missed != "" {
			a.MissedTopics = strings.Split(missed, "\n")
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ExportHistory builds the export payload from everything stored.
func (s *Store) ExportHistory() (model.HistoryExport, error) {
	plans, err := s.ListPlans()
	if err != nil {
		return model.HistoryExport{}, fmt.Errorf("list plans: %w", err)
	}
	attempts, err := s.ListAttempts()
	if err != nil {
		return model.HistoryExport{}, fmt.Errorf("list attempts: %w", err)
	}
	return model.HistoryExport{
		ExportedAt: time.Now(),
		Plans:      plans,
		Attempts:   attempts,
	}, nil
}
