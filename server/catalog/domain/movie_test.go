package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovieDecodesLooseFields(t *testing.T) {
	raw := `{"id":17,"title":"Jin, Tilak tila!","year":2024,"genre":["Fantasy","Comedy"],"rating":"8.0/10","sndVotes":150,"poster":null}`

	var m Movie
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, FlexString("17"), m.ID)
	assert.Equal(t, "2024", m.Year.String())
	assert.Equal(t, "Fantasy, Comedy", m.Genre.String())
	assert.Equal(t, "8.0/10", m.Rating.String())
	assert.Equal(t, "150", m.SndVotes.String())
	assert.Empty(t, m.Poster)
}

func TestFlexStringRejectsObjects(t *testing.T) {
	var f FlexString
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &f))
}

func TestCatalogShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"array", `[{"id":"a","title":"A"},{"id":"b","title":"B"}]`, 2},
		{"wrapped", `{"movies":[{"id":"a","title":"A"}]}`, 1},
		{"other object", `{"films":[]}`, 0},
		{"empty array", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Catalog
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &c))
			assert.Len(t, c, tt.want)
		})
	}
}
