package pagination

// Page represents one bounded batch of items returned by a single
// offset-paginated fetch, together with the request that produced it.
type Page[T any] struct {
	Items  []T `json:"items"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// NewPage creates a page from fetched items and the request that produced them
func NewPage[T any](items []T, req OffsetRequest) *Page[T] {
	return &Page[T]{
		Items:  items,
		Offset: req.Offset,
		Limit:  req.Limit,
	}
}

// Empty reports stream exhaustion: an empty page is the sole
// termination signal for offset pagination against this endpoint.
func (p *Page[T]) Empty() bool {
	return len(p.Items) == 0
}

func (p *Page[T]) Size() int {
	return len(p.Items)
}

// NextOffset is the offset of the strictly next unseen range. The
// endpoint pages by limit, so advancement is by limit even for a
// short final page.
func (p *Page[T]) NextOffset() int {
	return p.Offset + p.Limit
}
