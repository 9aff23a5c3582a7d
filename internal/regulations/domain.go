package regulations

import "time"

// Regulation is one entry in the regulation library. The library is
// read-heavy: compliance officers browse it constantly while updates
// arrive a few times a quarter.
type Regulation struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Title         string    `json:"title"`
	Authority     string    `json:"authority"`
	Category      string    `json:"category"`
	Summary       string    `json:"summary"`
	EffectiveDate time.Time `json:"effectiveDate"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ListFilter narrows and pages the library listing.
type ListFilter struct {
	Category string
	Page     int
	PerPage  int
}
