package domain

// ProductFilter selects products. Nil or empty fields do not constrain the result.
type ProductFilter struct {
	ForReview   *bool
	Featured    *bool
	CategoryIDs []string
	Brand       *string // case-insensitive substring
	Name        *string // case-insensitive substring
	Code        *string // case-insensitive exact match
	ExactCode   *string // case-sensitive exact match
	Limit       int64   // 0 means no limit
}

// ProductQuery holds the optional listing parameters a client can send.
type ProductQuery struct {
	Categories []string
	Brand      string
	Code       string
	Name       string
}

// PublicFilter builds the filter for the default listing: only products not held for review.
func (q ProductQuery) PublicFilter() ProductFilter {
	f := ProductFilter{ForReview: Ptr(false), CategoryIDs: q.Categories}
	if q.Brand != "" {
		f.Brand = Ptr(q.Brand)
	}
	if q.Code != "" {
		f.Code = Ptr(q.Code)
	}
	if q.Name != "" {
		f.Name = Ptr(q.Name)
	}
	return f
}

type ReviewFilter struct {
	ProductID *string
	UserID    *string
	Approved  *bool
}

func Ptr[T any](v T) *T { return &v }
