package model

import (
	"encoding/json"
	"fmt"
)

// DayType distinguishes study days from revision days.
type DayType string

const (
	DayStudy    DayType = "study"
	DayRevision DayType = "revision"
)

// RevisionLabel is the fixed text carried by every revision day.
const RevisionLabel = "Revise all covered topics"

// TopicAssignment is one topic scheduled on a study day.
type TopicAssignment struct {
	Subject        string `json:"subject"`
	Topic          string `json:"topic"`
	SuggestedHours int    `json:"suggested_hours"`
}

// PlanDay is a single entry of a study plan. On the wire the "topics" field
// is an array of assignments for study days and the fixed revision label
// string for revision days.
type PlanDay struct {
	Day    int
	Type   DayType
	Topics []TopicAssignment
	Label  string
}

type planDayWire struct {
	Day    int             `json:"day"`
	Type   DayType         `json:"type"`
	Topics json.RawMessage `json:"topics"`
}

// MarshalJSON writes the array-or-string topics shape.
func (d PlanDay) MarshalJSON() ([]byte, error) {
	var topics json.RawMessage
	var err error
	if d.Type == DayRevision {
		label := d.Label
		if label == "" {
			label = RevisionLabel
		}
		topics, err = json.Marshal(label)
	} else {
		assignments := d.Topics
		if assignments == nil {
			assignments = []TopicAssignment{}
		}
		topics, err = json.Marshal(assignments)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(planDayWire{Day: d.Day, Type: d.Type, Topics: topics})
}

// UnmarshalJSON accepts both topics shapes.
func (d *PlanDay) UnmarshalJSON(data []byte) error {
	var wire planDayWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	d.Day = wire.Day
	d.Type = wire.Type
	d.Topics = nil
	d.Label = ""

	if len(wire.Topics) == 0 {
		return nil
	}
	var assignments []TopicAssignment
	if err := json.Unmarshal(wire.Topics, &assignments); err == nil {
		d.Topics = assignments
		if d.Type == "" {
			d.Type = DayStudy
		}
		return nil
	}
	var label string
	if err := json.Unmarshal(wire.Topics, &label); err == nil {
		d.Label = label
		if d.Type == "" {
			d.Type = DayRevision
		}
		return nil
	}
	return fmt.Errorf("plan day %d: topics are neither array nor string", wire.Day)
}
