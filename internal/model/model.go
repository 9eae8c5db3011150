package model

import (
	"strings"
	"time"
)

// Exam describes a supported exam and the subjects a quiz can draw from.
type Exam struct {
	Name     string   `json:"name"`
	Subjects []string `json:"subjects"`
}

// Exams lists the exams the planner knows about, in display order.
var Exams = []Exam{
	{Name: "JEE", Subjects: []string{"Mathematics", "Physics", "Chemistry"}},
	{Name: "NEET", Subjects: []string{"Physics", "Chemistry", "Biology"}},
	{Name: "UPSC", Subjects: []string{"General Studies", "CSAT", "Essay"}},
	{Name: "GATE", Subjects: []string{"General Aptitude", "Technical"}},
}

// ExamByName looks up an exam by name, case-insensitively.
func ExamByName(name string) (Exam, bool) {
	for _, e := range Exams {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Exam{}, false
}

// PlanSource records how a stored plan was produced.
type PlanSource string

const (
	// SourceDeterministic marks plans computed by the local partitioner.
	SourceDeterministic PlanSource = "deterministic"
	// SourceLLM marks plans generated end-to-end by the language model.
	SourceLLM PlanSource = "llm"
)

// SyllabusRecord is a stored generated syllabus.
type SyllabusRecord struct {
	ID        int64     `json:"id"`
	Exam      string    `json:"exam"`
	Syllabus  Syllabus  `json:"syllabus,omitempty"`
	Raw       string    `json:"raw,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PlanRecord is a stored study plan, either structured days or raw model text.
type PlanRecord struct {
	ID        int64      `json:"id"`
	Exam      string     `json:"exam"`
	EndDate   string     `json:"end_date"`
	Source    PlanSource `json:"source"`
	Days      []PlanDay  `json:"days,omitempty"`
	Raw       string     `json:"raw,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// QuizRecord is a stored generated quiz.
type QuizRecord struct {
	ID        int64     `json:"id"`
	Exam      string    `json:"exam"`
	Quiz      Quiz      `json:"quiz"`
	CreatedAt time.Time `json:"created_at"`
}

// QuizAttempt is a stored, locally scored quiz submission.
type QuizAttempt struct {
	ID           int64     `json:"id"`
	QuizID       int64     `json:"quiz_id"`
	Exam         string    `json:"exam"`
	Score        int       `json:"score"`
	Total        int       `json:"total"`
	Percentage   float64   `json:"percentage"`
	Grade        string    `json:"grade"`
	MissedTopics []string  `json:"missed_topics,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HistoryExport is the top-level JSON structure for the export subcommand.
type HistoryExport struct {
	ExportedAt time.Time     `json:"exported_at"`
	Plans      []PlanRecord  `json:"plans"`
	Attempts   []QuizAttempt `json:"attempts"`
}

// Config holds runtime parameters set via CLI flags.
type Config struct {
	Addr          string
	DBPath        string
	LLMURL        string
	LLMKey        string
	LLMModel      string
	Lang          string
	QuizSize      int  // default question count when a request omits it
	SecureCookies bool // Set Secure flag on cookies (disable for local dev)
}
