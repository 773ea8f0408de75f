// Package paging computes page windows for a result set. Info is a
// pure value: it is built fresh for every query and never mutated.
package paging

import "fmt"

// Info is an immutable snapshot of one pagination state.
//
// CurrentPage is clamped to >= 1 on construction but deliberately NOT
// clamped to <= TotalPages; callers consult HasNext/HasPrevious before
// advancing.
type Info struct {
	TotalCount  int
	PageSize    int
	CurrentPage int
}

// New builds an Info snapshot, clamping currentPage to at least 1.
func New(totalCount, pageSize, currentPage int) Info {
	if currentPage < 1 {
		currentPage = 1
	}
	return Info{
		TotalCount:  totalCount,
		PageSize:    pageSize,
		CurrentPage: currentPage,
	}
}

// TotalPages is ceil(TotalCount/PageSize), or 0 when PageSize <= 0.
// An empty result set has 0 pages, not 1.
func (i Info) TotalPages() int {
	if i.PageSize <= 0 {
		return 0
	}
	return (i.TotalCount + i.PageSize - 1) / i.PageSize
}

// HasPrevious reports whether a page precedes the current one.
func (i Info) HasPrevious() bool {
	return i.CurrentPage > 1
}

// HasNext reports whether a page follows the current one.
func (i Info) HasNext() bool {
	return i.CurrentPage < i.TotalPages()
}

// StartIndex is the 1-based index of the first row on the current
// page, or 0 when the result set is empty.
func (i Info) StartIndex() int {
	if i.TotalCount == 0 {
		return 0
	}
	return (i.CurrentPage-1)*i.PageSize + 1
}

// EndIndex is the 1-based index of the last row on the current page,
// or 0 when the result set is empty.
func (i Info) EndIndex() int {
	if i.TotalCount == 0 {
		return 0
	}
	end := i.CurrentPage * i.PageSize
	if end > i.TotalCount {
		end = i.TotalCount
	}
	return end
}

// PageInfoText renders the footer line shown under a transaction page.
func (i Info) PageInfoText() string {
	if i.TotalCount == 0 {
		return "No records found"
	}
	return fmt.Sprintf("Showing %d-%d of %d transactions (Page %d of %d)",
		i.StartIndex(), i.EndIndex(), i.TotalCount, i.CurrentPage, i.TotalPages())
}
