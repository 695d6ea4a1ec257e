package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CategoryScore is one named sub-rating of a review (e.g. cleanliness: 9).
type CategoryScore struct {
	Name  string
	Score float64
}

// Categories is an ordered mapping from category name to score. Names are
// whatever the backend sends; there is no fixed set.
type Categories []CategoryScore

// Get returns the score for name and whether it is present.
func (c Categories) Get(name string) (float64, bool) {
	for _, cs := range c {
		if cs.Name == name {
			return cs.Score, true
		}
	}
	return 0, false
}

// Set replaces the score for an existing name in place or appends a new one.
func (c Categories) Set(name string, score float64) Categories {
	for i := range c {
		if c[i].Name == name {
			c[i].Score = score
			return c
		}
	}
	return append(c, CategoryScore{Name: name, Score: score})
}

func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cs := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(cs.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(cs.Score)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the payload. A repeated key keeps its
// first position and its last value. null decodes to an empty mapping;
// a null score is skipped.
func (c *Categories) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*c = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("categories: expected object, got %v", tok)
	}
	out := make(Categories, 0, 8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("categories: expected key, got %v", tok)
		}
		var score *float64
		if err := dec.Decode(&score); err != nil {
			return fmt.Errorf("categories: %s: %w", name, err)
		}
		if score == nil {
			continue // no observation
		}
		out = out.Set(name, *score)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}
