package backend

import (
	"encoding/json"
	"fmt"
)

// Page is the paginated envelope returned by list endpoints.
type Page[T any] struct {
	Items       []T `json:"items"`
	TotalCount  int `json:"totalCount"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}

// DecodePage reads a page whose list is named either "items" or resource
// ("auctions", "bids", ...). Missing paging fields fall back to a single page.
func DecodePage[T any](resp *Response, resource string) (Page[T], error) {
	var page Page[T]
	if resp == nil || len(resp.Body) == 0 {
		return page, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &fields); err != nil {
		return page, fmt.Errorf("backend: decode %s page: %w", resource, err)
	}

	list, ok := fields["items"]
	if !ok {
		list, ok = fields[resource]
	}
	if ok {
		if err := json.Unmarshal(list, &page.Items); err != nil {
			return page, fmt.Errorf("backend: decode %s items: %w", resource, err)
		}
	}

	for key, dst := range map[string]*int{
		"totalCount":  &page.TotalCount,
		"total":       &page.TotalCount,
		"currentPage": &page.CurrentPage,
		"page":        &page.CurrentPage,
		"totalPages":  &page.TotalPages,
	} {
		raw, ok := fields[key]
		if !ok || *dst != 0 {
			continue
		}
		_ = json.Unmarshal(raw, dst)
	}

	if page.CurrentPage == 0 {
		page.CurrentPage = 1
	}
	if page.TotalCount == 0 {
		page.TotalCount = len(page.Items)
	}
	if page.TotalPages == 0 && len(page.Items) > 0 {
		page.TotalPages = 1
	}
	return page, nil
}
