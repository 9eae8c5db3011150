package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pavelanni/studyplanner/internal/model"
)

// Model output is untyped text. The parsers below are best-effort: callers
// treat an error as "display the raw text instead", never as a failure that
// aborts the flow.

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-len("```")]
	}
	return strings.TrimSpace(s)
}

// extractJSON cuts the outermost open..close span out of text that may
// surround the JSON with prose.
func extractJSON(s string, open, close byte) (string, bool) {
	i := strings.IndexByte(s, open)
	j := strings.LastIndexByte(s, close)
	if i < 0 || j <= i {
		return "", false
	}
	return s[i : j+1], true
}

// ParseSyllabus extracts a subject-to-topics syllabus from raw model output.
func ParseSyllabus(raw string) (model.Syllabus, error) {
	text := StripFences(raw)

	var s model.Syllabus
	if err := json.Unmarshal([]byte(text), &s); err == nil {
		return s, nil
	}
	if inner, ok := extractJSON(text, '{', '}'); ok {
		if err := json.Unmarshal([]byte(inner), &s); err == nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("response is not a syllabus object")
}

// ParsePlan extracts a day-entry array from raw model output.
func ParsePlan(raw string) ([]model.PlanDay, error) {
	text := StripFences(raw)

	var days []model.PlanDay
	if err := json.Unmarshal([]byte(text), &days); err == nil {
		return days, nil
	}
	if inner, ok := extractJSON(text, '[', ']'); ok {
		if err := json.Unmarshal([]byte(inner), &days); err == nil {
			return days, nil
		}
	}
	return nil, fmt.Errorf("response is not a plan array")
}

// ParseQuiz extracts a quiz from raw model output and checks it is usable.
func ParseQuiz(raw string) (*model.Quiz, error) {
	text := StripFences(raw)

	var q model.Quiz
	err := json.Unmarshal([]byte(text), &q)
	if err != nil {
		inner, ok := extractJSON(text, '{', '}')
		if !ok {
			return nil, fmt.Errorf("response contains no JSON object")
		}
		if err = json.Unmarshal([]byte(inner), &q); err != nil {
			return nil, fmt.Errorf("parse quiz: %w", err)
		}
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("parse quiz: %w", err)
	}
	return &q, nil
}
