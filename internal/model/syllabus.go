package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Subject is one syllabus entry: a subject name with its ordered topics.
type Subject struct {
	Name   string   `json:"name"`
	Topics []string `json:"topics"`
}

// Syllabus is an ordered list of subjects. The JSON wire form is an object
// mapping subject name to a topic list; object key order is the scheduling
// order, so decoding preserves it instead of going through a Go map.
type Syllabus []Subject

// TopicRef identifies a single topic within its subject.
type TopicRef struct {
	Subject string
	Topic   string
}

// Flatten returns all (subject, topic) pairs in subject order, then topic
// order within each subject. This is the scheduling order.
func (s Syllabus) Flatten() []TopicRef {
	var refs []TopicRef
	for _, sub := range s {
		for _, t := range sub.Topics {
			refs = append(refs, TopicRef{Subject: sub.Name, Topic: t})
		}
	}
	return refs
}

// TopicCount returns the total number of topics across all subjects.
func (s Syllabus) TopicCount() int {
	n := 0
	for _, sub := range s {
		n += len(sub.Topics)
	}
	return n
}

// MarshalJSON renders the syllabus as a JSON object in subject order.
func (s Syllabus) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sub := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sub.Name)
		if err != nil {
			return nil, err
		}
		topics, err := json.Marshal(sub.Topics)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(topics)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a {subject: topics} object token by token so that
// subject order survives. Topic values may be a plain topic array, a single
// topic string, or a nested {topic: subtopics} object (the model sometimes
// returns one level deeper than asked); nested objects contribute their keys
// as topics, in order. A repeated subject key merges into the first entry.
func (s *Syllabus) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("syllabus: expected JSON object, got %v", tok)
	}

	var out Syllabus
	index := make(map[string]int)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("syllabus: non-string subject key %v", keyTok)
		}

		topics, err := decodeTopics(dec)
		if err != nil {
			return fmt.Errorf("syllabus: subject %q: %w", name, err)
		}

		if i, seen := index[name]; seen {
			out[i].Topics = append(out[i].Topics, topics...)
			continue
		}
		index[name] = len(out)
		out = append(out, Subject{Name: name, Topics: topics})
	}

	if _, err := dec.Token(); err != nil { // closing '}'
		return err
	}

	*s = out
	return nil
}

func decodeTopics(dec *json.Decoder) ([]string, error) {
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}

	// Nested object: topic names are the keys, subtopics are dropped.
	inner := json.NewDecoder(bytes.NewReader(raw))
	tok, err := inner.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("topics are neither array, string, nor object")
	}
	var topics []string
	for inner.More() {
		keyTok, err := inner.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("non-string topic key %v", keyTok)
		}
		topics = append(topics, key)
		var skip json.RawMessage
		if err := inner.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return topics, nil
}
