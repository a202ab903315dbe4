package pagination

// OffsetRequest represents an offset-based pagination request
type OffsetRequest struct {
	Offset int `json:"offset" validate:"min=0"`
	Limit  int `json:"limit" validate:"min=1,max=10000"`
}

// Validate validates and normalizes offset pagination parameters
func (r *OffsetRequest) Validate() error {
	if r.Offset < 0 {
		r.Offset = 0
	}
	if r.Limit <= 0 {
		r.Limit = PageDefaultLimit
	}
	if r.Limit > PageMaxLimit {
		r.Limit = PageMaxLimit
	}
	return nil
}

// Next returns the request for the strictly next unseen range.
func (r OffsetRequest) Next() OffsetRequest {
	return OffsetRequest{Offset: r.Offset + r.Limit, Limit: r.Limit}
}
