package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10

	// windowSize is how many page links the templates render around the current page.
	windowSize = 5
)

// Params is the page and limit of a list request.
type Params struct {
	Page  int
	Limit int
}

// ParseParams reads page and limit from a query. Missing, malformed or
// non-positive values fall back to the defaults.
func ParseParams(query url.Values) Params {
	return Params{
		Page:  positiveOr(query.Get("page"), DefaultPage),
		Limit: positiveOr(query.Get("limit"), DefaultLimit),
	}
}

// Apply writes page and limit into query.
func (p Params) Apply(query url.Values) {
	query.Set("page", strconv.Itoa(p.Page))
	query.Set("limit", strconv.Itoa(p.Limit))
}

func positiveOr(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// State is what a list page needs to render its pager.
type State struct {
	CurrentPage int
	TotalPages  int
	HasPrevious bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Pages       []int
}

// Controls derives the pager for currentPage out of totalPages. Previous is
// disabled on page 1 and Next on the last page the server reports.
func Controls(currentPage, totalPages int) State {
	if currentPage < 1 {
		currentPage = 1
	}
	if totalPages < 0 {
		totalPages = 0
	}

	state := State{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
		PrevPage:    currentPage - 1,
		NextPage:    currentPage + 1,
	}
	if !state.HasPrevious {
		state.PrevPage = 1
	}
	if !state.HasNext {
		state.NextPage = currentPage
	}

	if totalPages == 0 {
		return state
	}

	start := currentPage - windowSize/2
	if start < 1 {
		start = 1
	}
	end := start + windowSize - 1
	if end > totalPages {
		end = totalPages
		start = end - windowSize + 1
		if start < 1 {
			start = 1
		}
	}
	for p := start; p <= end; p++ {
		state.Pages = append(state.Pages, p)
	}
	return state
}
