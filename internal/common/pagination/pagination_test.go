package pagination

import (
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeneratePages(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []string
	}{
		{"single page", 1, 1, []string{"1"}},
		{"middle of ten", 5, 10, []string{"1", "...", "4", "5", "6", "...", "10"}},
		{"no ellipsis for small gaps", 2, 3, []string{"1", "2", "3"}},
		{"one-page gap shows the page", 4, 10, []string{"1", "2", "3", "4", "5", "...", "10"}},
		{"first of ten", 1, 10, []string{"1", "2", "...", "10"}},
		{"last of ten", 10, 10, []string{"1", "...", "9", "10"}},
		{"near the end", 8, 10, []string{"1", "...", "7", "8", "9", "10"}},
		{"zero total treated as one", 1, 0, []string{"1"}},
		{"current clamped to total", 12, 4, []string{"1", "2", "3", "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Labels(GeneratePages(tt.current, tt.total)))
		})
	}
}

func TestGeneratePages_Items(t *testing.T) {
	items := GeneratePages(5, 10)
	assert.Equal(t, Item{Page: 1}, items[0])
	assert.True(t, items[1].Ellipsis)
	assert.Equal(t, 0, items[1].Page)
}

func TestParams_Normalize(t *testing.T) {
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, Params{}.Normalize())
	assert.Equal(t, Params{Page: 3, Limit: MaxLimit}, Params{Page: 3, Limit: 500}.Normalize())
	assert.Equal(t, 20, Params{Page: 3, Limit: 10}.Offset())
}

func TestParams_Apply(t *testing.T) {
	values := url.Values{}
	Params{Page: 2, Limit: 9}.Apply(values)
	assert.Equal(t, "2", values.Get("page"))
	assert.Equal(t, "9", values.Get("limit"))
}

func TestParseParams(t *testing.T) {
	r := httptest.NewRequest("GET", "/events?page=4&limit=5", nil)
	assert.Equal(t, Params{Page: 4, Limit: 5}, ParseParams(r))

	r = httptest.NewRequest("GET", "/events?page=abc", nil)
	assert.Equal(t, Params{Page: 1, Limit: DefaultLimit}, ParseParams(r))
}

func TestNewMetadata(t *testing.T) {
	m := NewMetadata(Params{Page: 2, Limit: 10}, 25)
	assert.Equal(t, Metadata{CurrentPage: 2, Limit: 10, TotalPages: 3, TotalCount: 25, HasNextPage: true}, m)
	assert.True(t, m.HasPrevPage())

	m = NewMetadata(Params{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 1, m.TotalPages)
	assert.False(t, m.HasNextPage)
	assert.False(t, m.HasPrevPage())
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, Slice(items, Params{Page: 2, Limit: 2}))
	assert.Equal(t, []int{5}, Slice(items, Params{Page: 3, Limit: 2}))
	assert.Nil(t, Slice(items, Params{Page: 4, Limit: 2}))
}
