// Package quiz scores quiz submissions locally; no model is consulted.
package quiz

import (
	"fmt"

	"github.com/pavelanni/studyplanner/internal/model"
)

// Grade tier cutoffs, in percent.
const (
	gradeACutoff = 80
	gradeBCutoff = 60
)

// Result is the outcome of scoring one submission.
type Result struct {
	Score        int      `json:"score"`
	Total        int      `json:"total"`
	Percentage   float64  `json:"percentage"`
	Grade        string   `json:"grade"`
	MissedTopics []string `json:"missed_topics,omitempty"`
}

// Score compares answers (keyed by 0-based question index) against the
// quiz's answer fields. Missed questions contribute their topic to
// MissedTopics, falling back to a positional label when the topic is empty.
func Score(q model.Quiz, answers map[int]string) Result {
	r := Result{Total: len(q.Questions)}

	for i, question := range q.Questions {
		if answers[i] == question.Answer {
			r.Score++
			continue
		}
		topic := question.Topic
		if topic == "" {
			topic = fmt.Sprintf("Question %d", i+1)
		}
		r.MissedTopics = append(r.MissedTopics, topic)
	}

	if r.Total > 0 {
		r.Percentage = float64(r.Score) / float64(r.Total) * 100
	}
	r.Grade = gradeFor(r.Percentage)
	return r
}

func gradeFor(percentage float64) string {
	switch {
	case percentage >= gradeACutoff:
		return "A"
	case percentage >= gradeBCutoff:
		return "B"
	default:
		return "C"
	}
}

// Unanswered returns the 1-based indices of questions with no answer.
func Unanswered(q model.Quiz, answers map[int]string) []int {
	var missing []int
	for i := range q.Questions {
		if answers[i] == "" {
			missing = append(missing, i+1)
		}
	}
	return missing
}
