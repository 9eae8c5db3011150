// Package prompts builds the natural-language prompts sent to the gateway.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"strings"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

var templateNames = []string{"syllabus", "timetable", "quiz", "tips", "studyplan"}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

// load parses all embedded prompt templates exactly once.
func load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		for _, name := range templateNames {
			content, err := templateFS.ReadFile("templates/" + name + ".txt")
			if err != nil {
				loadErr = errors.New("failed to read prompt file " + name + ".txt: " + err.Error())
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = errors.New("failed to parse prompt template " + name + ".txt: " + err.Error())
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

func build(name string, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	tmpl, ok := templates[name]
	if !ok {
		return "", errors.New("unknown prompt template: " + name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SyllabusData holds template data for the syllabus prompt.
type SyllabusData struct {
	Exam string
}

// TimetableData holds template data for the JSON timetable prompt.
type TimetableData struct {
	SyllabusJSON string
	EndDate      string
}

// QuizData holds template data for the quiz prompt.
type QuizData struct {
	Exam         string
	NumQuestions int
}

// TipsData holds template data for the remediation tips prompt.
type TipsData struct {
	Exam   string
	Topics string
}

// StudyPlanData holds template data for the combined markdown plan prompt.
type StudyPlanData struct {
	Exam    string
	EndDate string
}

// BuildSyllabus builds the syllabus-as-JSON prompt for an exam.
func BuildSyllabus(exam string) (string, error) {
	return build("syllabus", SyllabusData{Exam: exam})
}

// BuildTimetable builds the timetable prompt for an already generated
// syllabus (as its JSON wire form) and an end date in YYYY-MM-DD form.
func BuildTimetable(syllabusJSON, endDate string) (string, error) {
	return build("timetable", TimetableData{SyllabusJSON: syllabusJSON, EndDate: endDate})
}

// BuildQuiz builds the multiple-choice quiz prompt. The exam label may carry
// subject qualifiers, e.g. "UPSC - CSAT, Essay".
func BuildQuiz(exam string, numQuestions int) (string, error) {
	return build("quiz", QuizData{Exam: exam, NumQuestions: numQuestions})
}

// BuildTips builds the remediation prompt for topics the student missed.
func BuildTips(exam string, topics []string) (string, error) {
	return build("tips", TipsData{Exam: exam, Topics: strings.Join(topics, ", ")})
}

// BuildStudyPlan builds the one-shot markdown syllabus+timetable prompt used
// when no structured syllabus is available.
func BuildStudyPlan(exam, endDate string) (string, error) {
	return build("studyplan", StudyPlanData{Exam: exam, EndDate: endDate})
}
