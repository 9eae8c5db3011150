package model

import (
	"errors"
	"fmt"
)

// Question is a single multiple-choice question. Four options and an answer
// matching one of them are expected but, per the generation contract, not
// enforced on decode.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Topic    string   `json:"topic,omitempty"`
}

// Quiz is an ordered list of questions.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// Validate reports whether the quiz is usable: at least one question, each
// with text and at least one option. Option count and answer membership are
// deliberately not checked.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return errors.New("quiz has no questions")
	}
	for i, question := range q.Questions {
		if question.Question == "" {
			return fmt.Errorf("question %d has no text", i+1)
		}
		if len(question.Options) == 0 {
			return fmt.Errorf("question %d has no options", i+1)
		}
	}
	return nil
}
