package model

// VaccineCenter is a read-only reference entry.
type VaccineCenter struct {
	ID   int    `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Tel  string `json:"tel" db:"tel"`
}

// EmptyRequest is bound by endpoints that take no input.
type EmptyRequest struct{}

func (r *EmptyRequest) Validate() error {
	return nil
}
