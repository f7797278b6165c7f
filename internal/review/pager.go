package review

// PageSizes are the rows-per-page choices offered to the operator.
var PageSizes = []int{10, 20, 50, 100}

const DefaultPageSize = 20

// Pager slices Rows rows into pages of Size rows. Pages are 1-indexed.
type Pager struct {
	Rows int
	Size int
}

func (p Pager) size() int {
	if p.Size <= 0 {
		return DefaultPageSize
	}
	return p.Size
}

// PageCount is ceil(Rows/Size), at least 1 even for an empty table.
func (p Pager) PageCount() int {
	size := p.size()
	n := (p.Rows + size - 1) / size
	if n < 1 {
		return 1
	}
	return n
}

// Clamp forces page into [1, PageCount].
func (p Pager) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if last := p.PageCount(); page > last {
		return last
	}
	return page
}

// Window returns the half-open row range [start, end) shown on page, after
// clamping page.
func (p Pager) Window(page int) (start, end int) {
	size := p.size()
	page = p.Clamp(page)
	start = (page - 1) * size
	end = min(p.Rows, start+size)
	if start > end {
		start = end
	}
	return start, end
}
