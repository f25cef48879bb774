package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// RowsPerPage is a page size; AllRows disables paging.
type RowsPerPage int

// AllRows shows every filtered row on a single page.
const AllRows RowsPerPage = 0

// DefaultRowsPerPage is the initial page size of a view.
const DefaultRowsPerPage RowsPerPage = 10

func (n RowsPerPage) String() string {
	if n <= AllRows {
		return "all"
	}
	return strconv.Itoa(int(n))
}

// IsAll reports whether paging is disabled.
func (n RowsPerPage) IsAll() bool { return n <= AllRows }

// RowsPerPageChoices are the page sizes offered by interactive front ends.
var RowsPerPageChoices = []RowsPerPage{10, 20, 50, 100, 200, 500, 1000, AllRows}

// Next returns the choice after n, wrapping around. Sizes that are not a
// choice move to the first choice.
func (n RowsPerPage) Next() RowsPerPage {
	for i, c := range RowsPerPageChoices {
		if c == n {
			return RowsPerPageChoices[(i+1)%len(RowsPerPageChoices)]
		}
	}
	return RowsPerPageChoices[0]
}

// ParseRowsPerPage accepts a positive integer or "all".
func ParseRowsPerPage(s string) (RowsPerPage, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "all" {
		return AllRows, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return AllRows, fmt.Errorf("rows per page must be a positive number or \"all\", got %q", s)
	}
	return RowsPerPage(n), nil
}

// Pagination selects one page of the filtered rows. Pages are 1-based.
type Pagination struct {
	RowsPerPage RowsPerPage
	CurrentPage int
}

// TotalPages returns ceil(n / RowsPerPage), or 1 when paging is disabled.
func (p Pagination) TotalPages(n int) int {
	if p.RowsPerPage.IsAll() {
		return 1
	}
	size := int(p.RowsPerPage)
	return (n + size - 1) / size
}

// Clamp keeps CurrentPage within [1, TotalPages]. An empty result still has page 1.
func (p Pagination) Clamp(n int) Pagination {
	total := p.TotalPages(n)
	if total < 1 {
		total = 1
	}
	if p.CurrentPage > total {
		p.CurrentPage = total
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	return p
}

// Paginate slices rows for the current page and reports the page count.
// With AllRows every row is returned whatever CurrentPage says.
func Paginate(rows []Row, p Pagination) ([]Row, int) {
	total := p.TotalPages(len(rows))
	if p.RowsPerPage.IsAll() {
		return rows, total
	}
	page := p.CurrentPage
	if page < 1 {
		page = 1
	}
	size := int(p.RowsPerPage)
	start := (page - 1) * size
	if start >= len(rows) {
		return []Row{}, total
	}
	end := start + size
	if end > len(rows) {
		end = len(rows)
	}
	return rows[start:end], total
}
