package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSyllabusUnmarshalPreservesOrder(t *testing.T) {
	// Keys deliberately out of alphabetical order.
	data := `{"Physics": ["Mechanics", "Optics"], "Chemistry": ["Bonding"], "Biology": ["Cells"]}`

	var s Syllabus
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	wantSubjects := []string{"Physics", "Chemistry", "Biology"}
	if len(s) != len(wantSubjects) {
		t.Fatalf("expected %d subjects, got %d", len(wantSubjects), len(s))
	}
	for i, name := range wantSubjects {
		if s[i].Name != name {
			t.Errorf("subject %d: expected %q, got %q", i, name, s[i].Name)
		}
	}
	if len(s[0].Topics) != 2 || s[0].Topics[0] != "Mechanics" {
		t.Errorf("unexpected Physics topics: %v", s[0].Topics)
	}
}

func TestSyllabusUnmarshalNestedTopics(t *testing.T) {
	// Models sometimes return one level deeper: topic -> subtopics.
	data := `{"Math": {"Algebra": ["Linear", "Quadratic"], "Geometry": []}}`

	var s Syllabus
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(s) != 1 {
		t.Fatalf("expected 1 subject, got %d", len(s))
	}
	want := []string{"Algebra", "Geometry"}
	if len(s[0].Topics) != 2 || s[0].Topics[0] != want[0] || s[0].Topics[1] != want[1] {
		t.Errorf("expected topics %v, got %v", want, s[0].Topics)
	}
}

func TestSyllabusUnmarshalMergesDuplicateSubjects(t *testing.T) {
	data := `{"Math": ["Algebra"], "Physics": ["Mechanics"], "Math": ["Geometry"]}`

	var s Syllabus
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(s) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(s))
	}
	if s[0].Name != "Math" || len(s[0].Topics) != 2 {
		t.Errorf("expected merged Math entry, got %+v", s[0])
	}
}

func TestSyllabusUnmarshalRejectsNonObject(t *testing.T) {
	var s Syllabus
	if err := json.Unmarshal([]byte(`["Math"]`), &s); err == nil {
		t.Error("expected error for non-object syllabus")
	}
}

func TestSyllabusFlatten(t *testing.T) {
	s := Syllabus{
		{Name: "Math", Topics: []string{"Algebra", "Geometry"}},
		{Name: "Physics", Topics: []string{"Mechanics"}},
	}

	refs := s.Flatten()
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	if refs[0] != (TopicRef{Subject: "Math", Topic: "Algebra"}) {
		t.Errorf("unexpected first ref: %+v", refs[0])
	}
	if refs[2] != (TopicRef{Subject: "Physics", Topic: "Mechanics"}) {
		t.Errorf("unexpected last ref: %+v", refs[2])
	}
	if s.TopicCount() != 3 {
		t.Errorf("expected topic count 3, got %d", s.TopicCount())
	}
}

func TestSyllabusMarshalRoundTrip(t *testing.T) {
	s := Syllabus{
		{Name: "Zoology", Topics: []string{"Mammals"}},
		{Name: "Anatomy", Topics: []string{"Bones", "Muscles"}},
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// Zoology must come first in the output even though it sorts last.
	if !strings.HasPrefix(string(data), `{"Zoology"`) {
		t.Errorf("marshal lost subject order: %s", data)
	}

	var back Syllabus
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(back) != 2 || back[0].Name != "Zoology" || back[1].Topics[1] != "Muscles" {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestPlanDayMarshal(t *testing.T) {
	study := PlanDay{
		Day:  1,
		Type: DayStudy,
		Topics: []TopicAssignment{
			{Subject: "Math", Topic: "Algebra", SuggestedHours: 2},
		},
	}
	data, err := json.Marshal(study)
	if err != nil {
		t.Fatalf("Marshal study day: %v", err)
	}
	if !strings.Contains(string(data), `"topics":[{`) {
		t.Errorf("study day topics should be an array: %s", data)
	}

	revision := PlanDay{Day: 4, Type: DayRevision}
	data, err = json.Marshal(revision)
	if err != nil {
		t.Fatalf("Marshal revision day: %v", err)
	}
	if !strings.Contains(string(data), `"topics":"`+RevisionLabel+`"`) {
		t.Errorf("revision day topics should be the label string: %s", data)
	}
}

func TestPlanDayUnmarshalBothShapes(t *testing.T) {
	var study PlanDay
	err := json.Unmarshal([]byte(`{"day":2,"type":"study","topics":[{"subject":"Physics","topic":"Optics","suggested_hours":2}]}`), &study)
	if err != nil {
		t.Fatalf("Unmarshal study day: %v", err)
	}
	if len(study.Topics) != 1 || study.Topics[0].Topic != "Optics" {
		t.Errorf("unexpected study day: %+v", study)
	}

	var revision PlanDay
	err = json.Unmarshal([]byte(`{"day":5,"type":"revision","topics":"Revise all covered topics"}`), &revision)
	if err != nil {
		t.Fatalf("Unmarshal revision day: %v", err)
	}
	if revision.Label != RevisionLabel {
		t.Errorf("expected label %q, got %q", RevisionLabel, revision.Label)
	}
	if revision.Topics != nil {
		t.Errorf("revision day should have no assignments, got %+v", revision.Topics)
	}
}

func TestQuizValidate(t *testing.T) {
	tests := []struct {
		name    string
		quiz    Quiz
		wantErr bool
	}{
		{"empty", Quiz{}, true},
		{"no options", Quiz{Questions: []Question{{Question: "Q?"}}}, true},
		{"no text", Quiz{Questions: []Question{{Options: []string{"a"}}}}, true},
		{"ok", Quiz{Questions: []Question{
			{Question: "Q?", Options: []string{"a", "b", "c", "d"}, Answer: "a"},
		}}, false},
		// Three options are tolerated: the 4-option count is expected, not enforced.
		{"three options", Quiz{Questions: []Question{
			{Question: "Q?", Options: []string{"a", "b", "c"}, Answer: "a"},
		}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.quiz.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExamByName(t *testing.T) {
	if _, ok := ExamByName("jee"); !ok {
		t.Error("expected case-insensitive match for jee")
	}
	if _, ok := ExamByName("SAT"); ok {
		t.Error("expected no match for SAT")
	}
}
