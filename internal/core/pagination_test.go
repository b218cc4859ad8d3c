// AngelaMos | 2026
// pagination_test.go

package core

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  PageRequest
	}{
		{
			name:  "defaults",
			query: "",
			want:  PageRequest{Page: 0, Size: 5, Sort: "id", Direction: "asc"},
		},
		{
			name:  "explicit values",
			query: "?page=2&size=10&sort=email&direction=DESC",
			want:  PageRequest{Page: 2, Size: 10, Sort: "email", Direction: "desc"},
		},
		{
			name:  "clamped",
			query: "?page=-3&size=1000&direction=sideways",
			want:  PageRequest{Page: 0, Size: MaxPageSize, Sort: "id", Direction: "asc"},
		},
		{
			name:  "huge page is capped",
			query: "?page=4611686018427387904&size=4",
			want:  PageRequest{Page: MaxPage, Size: 4, Sort: "id", Direction: "asc"},
		},
		{
			name:  "garbage numbers",
			query: "?page=x&size=y",
			want:  PageRequest{Page: 0, Size: 5, Sort: "id", Direction: "asc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/users"+tt.query, nil)
			assert.Equal(t, tt.want, PageRequestFromQuery(r, 5))
		})
	}
}

func TestOffsetNeverOverflows(t *testing.T) {
	for _, query := range []string{
		"?page=4611686018427387904&size=4",
		"?page=3074457345618258603&size=3",
		"?page=9223372036854775807&size=100",
	} {
		req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
		p := PageRequestFromQuery(req, 5)

		assert.Positive(t, p.Offset(), query)
		assert.LessOrEqual(t, p.Offset(), math.MaxInt32, query)
	}
}

func TestOrderBy(t *testing.T) {
	columns := map[string]string{"id": "u.id", "email": "u.email"}

	order, err := PageRequest{Sort: "id", Direction: "desc"}.OrderBy(columns)
	require.NoError(t, err)
	assert.Equal(t, "u.id DESC", order)

	order, err = PageRequest{Sort: "email", Direction: "asc"}.OrderBy(columns)
	require.NoError(t, err)
	assert.Equal(t, "u.email ASC, u.id ASC", order)

	_, err = PageRequest{Sort: "password_hash"}.OrderBy(columns)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewPage(t *testing.T) {
	req := PageRequest{Page: 1, Size: 4}

	p := NewPage([]int{5, 6, 7, 8}, req, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.False(t, p.First)
	assert.False(t, p.Last)
	assert.False(t, p.Empty)
	assert.Equal(t, 4, req.Offset())

	empty := NewPage[int](nil, PageRequest{Page: 0, Size: 4}, 0)
	assert.NotNil(t, empty.Content)
	assert.True(t, empty.Empty)
	assert.True(t, empty.First)
	assert.True(t, empty.Last)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, raw := range []string{"", "0", "-1", "abc"} {
		_, err := ParseID(raw)
		assert.ErrorIs(t, err, ErrInvalidInput, raw)
	}
}
