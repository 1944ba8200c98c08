package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  Params
	}{
		{name: "defaults", query: "", want: Params{Page: 1, Limit: 10}},
		{name: "explicit", query: "page=3&limit=25", want: Params{Page: 3, Limit: 25}},
		{name: "zero", query: "page=0&limit=0", want: Params{Page: 1, Limit: 10}},
		{name: "negative", query: "page=-2&limit=-1", want: Params{Page: 1, Limit: 10}},
		{name: "garbage", query: "page=two&limit=1.5", want: Params{Page: 1, Limit: 10}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			require.Equal(t, tc.want, ParseParams(q))
		})
	}
}

func TestParams_Apply(t *testing.T) {
	t.Parallel()

	q := url.Values{"status": {"ACTIVE"}}
	Params{Page: 2, Limit: 20}.Apply(q)
	require.Equal(t, "limit=20&page=2&status=ACTIVE", q.Encode())
}

func TestControls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     int
		total       int
		hasPrevious bool
		hasNext     bool
		pages       []int
	}{
		{name: "first_of_many", current: 1, total: 10, hasPrevious: false, hasNext: true, pages: []int{1, 2, 3, 4, 5}},
		{name: "middle", current: 5, total: 10, hasPrevious: true, hasNext: true, pages: []int{3, 4, 5, 6, 7}},
		{name: "last", current: 10, total: 10, hasPrevious: true, hasNext: false, pages: []int{6, 7, 8, 9, 10}},
		{name: "single_page", current: 1, total: 1, hasPrevious: false, hasNext: false, pages: []int{1}},
		{name: "no_results", current: 1, total: 0, hasPrevious: false, hasNext: false, pages: nil},
		{name: "past_the_end", current: 4, total: 3, hasPrevious: true, hasNext: false, pages: []int{1, 2, 3}},
		{name: "zero_page", current: 0, total: 3, hasPrevious: false, hasNext: true, pages: []int{1, 2, 3}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			state := Controls(tc.current, tc.total)
			require.Equal(t, tc.hasPrevious, state.HasPrevious)
			require.Equal(t, tc.hasNext, state.HasNext)
			require.Equal(t, tc.pages, state.Pages)
			if state.HasPrevious {
				require.Equal(t, state.CurrentPage-1, state.PrevPage)
			}
			if state.HasNext {
				require.Equal(t, state.CurrentPage+1, state.NextPage)
			}
		})
	}
}
