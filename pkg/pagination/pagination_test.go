package pagination

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQuery_Absent(t *testing.T) {
	p, err := FromQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, Params{}, p)
}

func TestFromQuery_CustomValues(t *testing.T) {
	p, err := FromQuery(url.Values{"page": {"3"}, "limit": {"50"}})
	require.NoError(t, err)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 50, p.Limit)
	assert.Equal(t, 100, p.Offset) // (3-1) * 50
}

func TestFromQuery_OutOfRangePassedThrough(t *testing.T) {
	p, err := FromQuery(url.Values{"page": {"-1"}, "limit": {"500"}})
	require.NoError(t, err)
	assert.Equal(t, -1, p.Page)
	assert.Equal(t, 500, p.Limit)
	assert.Equal(t, 0, p.Offset)
}

func TestFromQuery_NotNumber(t *testing.T) {
	tests := []struct {
		query url.Values
		name  string
	}{
		{url.Values{"page": {"abc"}}, "page"},
		{url.Values{"limit": {"1.5"}}, "limit"},
		{url.Values{"page": {"2"}, "limit": {"ten"}}, "limit"},
	}

	for _, tt := range tests {
		_, err := FromQuery(tt.query)
		require.Error(t, err)

		var pe *ParamError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, tt.name, pe.Name)
	}
}

func TestFromQuery_OffsetCalculation(t *testing.T) {
	tests := []struct {
		page   string
		limit  string
		offset int
	}{
		{"1", "10", 0},
		{"2", "10", 10},
		{"3", "25", 50},
		{"10", "100", 900},
	}

	for _, tt := range tests {
		p, err := FromQuery(url.Values{"page": {tt.page}, "limit": {tt.limit}})
		require.NoError(t, err)
		assert.Equal(t, tt.offset, p.Offset, "page=%s limit=%s", tt.page, tt.limit)
	}
}

func TestNewResult(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		params     Params
		totalPages int
		hasNext    bool
		hasPrev    bool
	}{
		{"empty", 0, Params{Page: 1, Limit: 20}, 0, false, false},
		{"exact fit", 40, Params{Page: 1, Limit: 20}, 2, true, false},
		{"partial last page", 41, Params{Page: 2, Limit: 20}, 3, true, true},
		{"last page", 41, Params{Page: 3, Limit: 20}, 3, false, true},
		{"beyond last page", 5, Params{Page: 4, Limit: 20}, 1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResult([]int{1}, tt.total, tt.params)
			assert.Equal(t, tt.totalPages, r.TotalPages)
			assert.Equal(t, tt.hasNext, r.HasNext)
			assert.Equal(t, tt.hasPrev, r.HasPrev)
			assert.Equal(t, tt.total, r.TotalCount)
		})
	}
}

func TestNewResult_NilDataBecomesEmpty(t *testing.T) {
	r := NewResult[string](nil, 0, Params{Page: 1, Limit: 20})
	assert.NotNil(t, r.Data)
	assert.Empty(t, r.Data)
}
