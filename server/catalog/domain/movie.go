package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Movie is one catalog record. The catalog is owned elsewhere, so loosely typed fields are
// accepted as strings or numbers.
type Movie struct {
	ID            FlexString `json:"id"`
	Slug          string     `json:"slug,omitempty"`
	Title         string     `json:"title"`
	Year          FlexString `json:"year,omitempty"`
	OriginalTitle string     `json:"originalTitle,omitempty"`
	Description   string     `json:"description,omitempty"`
	Genre         FlexString `json:"genre,omitempty"`
	Poster        string     `json:"poster,omitempty"`
	Rating        FlexString `json:"rating,omitempty"`
	SndVotes      FlexString `json:"sndVotes,omitempty"`
}

// FlexString decodes a JSON string, number, bool, null or array of those into text.
// Arrays are joined with ", ".
type FlexString string

func (f FlexString) String() string {
	return string(f)
}

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	case data[0] == '[':
		var items []FlexString
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item != "" {
				parts = append(parts, string(item))
			}
		}
		*f = FlexString(strings.Join(parts, ", "))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err == nil {
			*f = FlexString(n.String())
			return nil
		}
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		if b {
			*f = "true"
		} else {
			*f = "false"
		}
		return nil
	}
}

// Catalog accepts either a bare array of movies or an object with a "movies" array.
type Catalog []Movie

func (c *Catalog) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var movies []Movie
		if err := json.Unmarshal(data, &movies); err != nil {
			return err
		}
		*c = movies
		return nil
	}
	var wrapped struct {
		Movies []Movie `json:"movies"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	*c = wrapped.Movies
	return nil
}
