package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 25
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
	// MaxPage bounds the page query parameter.
	MaxPage = 100000
)

// Params holds page/limit pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NormalizePage clamps the page number to 1-based indexing.
func NormalizePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// Offset converts the normalized page/limit pair into a row offset.
func (p Params) Offset() int {
	return (NormalizePage(p.Page) - 1) * NormalizeLimit(p.Limit)
}

// PageCount returns the number of pages needed for total rows.
func PageCount(total int64, limit int) int {
	normalized := int64(NormalizeLimit(limit))
	if total <= 0 {
		return 0
	}
	pages := total / normalized
	if total%normalized != 0 {
		pages++
	}
	return int(pages)
}
