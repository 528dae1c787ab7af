package catalog

import "time"

// Columns is the fixed store schema, in order. Every backend persists exactly
// these seven columns; anything else is a schema mismatch.
var Columns = []string{
	"productType",
	"color",
	"brand",
	"description",
	"imageURL",
	"requestId",
	"timestamp",
}

// Record is a normalized product ready for persistence. Only records whose
// vocabulary-constrained fields already passed validation are constructed.
type Record struct {
	ProductType string
	Color       string
	Brand       string
	Description string
	ImageURL    string
	RequestID   string
	Timestamp   time.Time
}

// Row returns the record as store cells in Columns order.
func (r Record) Row() []string {
	return []string{
		r.ProductType,
		r.Color,
		r.Brand,
		r.Description,
		r.ImageURL,
		r.RequestID,
		r.Timestamp.UTC().Format(time.RFC3339),
	}
}
