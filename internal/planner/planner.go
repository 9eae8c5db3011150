// Package planner computes deterministic day-by-day study plans without
// consulting any model.
package planner

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/pavelanni/studyplanner/internal/model"
)

const (
	defaultHours = 2
	essayHours   = 1
)

// DaysUntil returns the number of whole days from now until end, floored at
// one so an exam today (or in the past) still yields a usable horizon.
func DaysUntil(now, end time.Time) int {
	days := int(end.Sub(now).Hours() / 24)
	if days < 1 {
		return 1
	}
	return days
}

// SuggestedHours returns the per-topic study budget: one hour for essay
// practice, two for everything else.
func SuggestedHours(subject string) int {
	if strings.EqualFold(subject, "essay") {
		return essayHours
	}
	return defaultHours
}

// Partition spreads the syllabus topics across the days remaining until end,
// reserving roughly one revision day per week (minimum one) at the tail.
// Day indices are contiguous from 1, every topic is scheduled exactly once,
// and the same inputs always produce the same plan. Empty syllabi and
// non-future end dates are valid inputs, not errors.
func Partition(s model.Syllabus, end, now time.Time) []model.PlanDay {
	days := DaysUntil(now, end)
	topics := s.Flatten()
	total := len(topics)

	revisionDays := days / 7
	if revisionDays < 1 {
		revisionDays = 1
	}
	studyDays := days - revisionDays

	// When the horizon collapses to revision days only, everything that
	// remains lands on a single synthetic study day.
	perDay := total
	if studyDays > 0 {
		perDay = total / studyDays
		if perDay < 1 {
			perDay = 1
		}
	}

	var plan []model.PlanDay
	day := 1

	if total > 0 {
		for _, window := range lo.Chunk(topics, perDay) {
			assignments := make([]model.TopicAssignment, 0, len(window))
			for _, ref := range window {
				assignments = append(assignments, model.TopicAssignment{
					Subject:        ref.Subject,
					Topic:          ref.Topic,
					SuggestedHours: SuggestedHours(ref.Subject),
				})
			}
			plan = append(plan, model.PlanDay{Day: day, Type: model.DayStudy, Topics: assignments})
			day++
		}
	}

	for j := 0; j < revisionDays; j++ {
		plan = append(plan, model.PlanDay{Day: day, Type: model.DayRevision, Label: model.RevisionLabel})
		day++
	}

	return plan
}
