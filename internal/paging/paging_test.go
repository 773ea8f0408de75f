package paging

import "testing"

func TestInfo_TotalPages(t *testing.T) {
	tests := []struct {
		name       string
		totalCount int
		pageSize   int
		want       int
	}{
		{"empty set has zero pages", 0, 50, 0},
		{"exact multiple", 100, 50, 2},
		{"partial last page", 125, 50, 3},
		{"single row", 1, 50, 1},
		{"page size one", 7, 1, 7},
		{"zero page size guards division", 100, 0, 0},
		{"negative page size guards division", 100, -5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := New(tt.totalCount, tt.pageSize, 1)
			if got := info.TotalPages(); got != tt.want {
				t.Errorf("TotalPages() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestInfo_TotalPagesIsCeiling(t *testing.T) {
	for totalCount := 0; totalCount <= 300; totalCount++ {
		for _, pageSize := range []int{1, 3, 10, 50} {
			info := New(totalCount, pageSize, 1)
			want := (totalCount + pageSize - 1) / pageSize
			if got := info.TotalPages(); got != want {
				t.Fatalf("TotalPages(%d, %d) = %d, want %d", totalCount, pageSize, got, want)
			}
			if (info.TotalPages() == 0) != (totalCount == 0) {
				t.Fatalf("TotalPages == 0 must hold exactly when totalCount == 0 (count=%d)", totalCount)
			}
		}
	}
}

func TestInfo_CurrentPageClamp(t *testing.T) {
	if got := New(10, 5, 0).CurrentPage; got != 1 {
		t.Errorf("page 0 should clamp to 1, got %d", got)
	}
	if got := New(10, 5, -3).CurrentPage; got != 1 {
		t.Errorf("negative page should clamp to 1, got %d", got)
	}
	// No upper clamp: callers check HasNext before advancing.
	if got := New(10, 5, 99).CurrentPage; got != 99 {
		t.Errorf("page beyond last must not be clamped, got %d", got)
	}
}

func TestInfo_Navigation(t *testing.T) {
	tests := []struct {
		name        string
		page        int
		hasPrevious bool
		hasNext     bool
	}{
		{"first page", 1, false, true},
		{"middle page", 2, true, true},
		{"last page", 3, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := New(125, 50, tt.page)
			if got := info.HasPrevious(); got != tt.hasPrevious {
				t.Errorf("HasPrevious() = %v, want %v", got, tt.hasPrevious)
			}
			if got := info.HasNext(); got != tt.hasNext {
				t.Errorf("HasNext() = %v, want %v", got, tt.hasNext)
			}
		})
	}
}

func TestInfo_Indices(t *testing.T) {
	tests := []struct {
		name       string
		totalCount int
		pageSize   int
		page       int
		wantStart  int
		wantEnd    int
	}{
		{"first page", 125, 50, 1, 1, 50},
		{"middle page", 125, 50, 2, 51, 100},
		{"short last page", 125, 50, 3, 101, 125},
		{"empty set", 0, 50, 1, 0, 0},
		{"single row", 1, 50, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := New(tt.totalCount, tt.pageSize, tt.page)
			if got := info.StartIndex(); got != tt.wantStart {
				t.Errorf("StartIndex() = %d, want %d", got, tt.wantStart)
			}
			if got := info.EndIndex(); got != tt.wantEnd {
				t.Errorf("EndIndex() = %d, want %d", got, tt.wantEnd)
			}
		})
	}
}

func TestInfo_PageInfoText(t *testing.T) {
	info := New(125, 50, 3)
	want := "Showing 101-125 of 125 transactions (Page 3 of 3)"
	if got := info.PageInfoText(); got != want {
		t.Errorf("PageInfoText() = %q, want %q", got, want)
	}

	if got := New(0, 50, 1).PageInfoText(); got != "No records found" {
		t.Errorf("empty set PageInfoText() = %q", got)
	}
}
