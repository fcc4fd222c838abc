// Package model holds the persisted entities and the request payloads that
// create or change them.
package model

import (
	"time"

	"github.com/deppfellow/vacq/internal/query"
	"github.com/deppfellow/vacq/internal/validation"
)

// Hospital is a vaccination-capable facility.
type Hospital struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name" validate:"required,max=50"`
	Address    string    `json:"address" db:"address" validate:"required"`
	District   string    `json:"district" db:"district" validate:"required"`
	Province   string    `json:"province" db:"province" validate:"required"`
	PostalCode string    `json:"postalcode" db:"postal_code" validate:"required,max=5"`
	Tel        string    `json:"tel" db:"tel"`
	Region     string    `json:"region" db:"region" validate:"required"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`

	// Appointments is only filled in by listings.
	Appointments []Appointment `json:"appointments,omitempty" db:"-"`
}

// Validate checks the stored invariants. Updates run it on the merged record.
func (h *Hospital) Validate() error {
	return validation.Struct(h)
}

// Document renders the hospital keyed by public field name with typed
// values, the shape query specs evaluate and project.
func (h *Hospital) Document() map[string]any {
	doc := map[string]any{
		"id":         h.ID,
		"name":       h.Name,
		"address":    h.Address,
		"district":   h.District,
		"province":   h.Province,
		"postalcode": h.PostalCode,
		"tel":        h.Tel,
		"region":     h.Region,
		"createdAt":  h.CreatedAt,
		"updatedAt":  h.UpdatedAt,
	}
	if h.Appointments != nil {
		doc["appointments"] = h.Appointments
	}
	return doc
}

// HospitalSchema lists the fields accepted by the hospital listing.
// createdAt is hidden from the default projection.
var HospitalSchema = query.NewSchema("id", []string{"createdAt"},
	query.Field{Name: "id", Column: "id", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "name", Column: "name", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "address", Column: "address", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "district", Column: "district", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "province", Column: "province", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "postalcode", Column: "postal_code", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "tel", Column: "tel", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "region", Column: "region", Kind: query.KindString, Filterable: true, Sortable: true, Selectable: true},
	query.Field{Name: "createdAt", Column: "created_at", Kind: query.KindTime, Filterable: true, Sortable: true, Selectable: true, Hidden: true},
	query.Field{Name: "updatedAt", Column: "updated_at", Kind: query.KindTime, Filterable: true, Sortable: true, Selectable: true},
)

// ----------------------------------------------------------------------------
// Requests
// ----------------------------------------------------------------------------

// HospitalIDRequest addresses a single hospital.
type HospitalIDRequest struct {
	ID string `param:"id" json:"-" validate:"required,uuid"`
}

func (r *HospitalIDRequest) Validate() error {
	return validation.Struct(r)
}

// CreateHospitalRequest is the body of POST /hospitals.
type CreateHospitalRequest struct {
	Name       string `json:"name" validate:"required,max=50"`
	Address    string `json:"address" validate:"required"`
	District   string `json:"district" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postalcode" validate:"required,max=5"`
	Tel        string `json:"tel"`
	Region     string `json:"region" validate:"required"`
}

func (r *CreateHospitalRequest) Validate() error {
	return validation.Struct(r)
}

func (r *CreateHospitalRequest) Sanitize(clean func(string) string) {
	for _, s := range []*string{&r.Name, &r.Address, &r.District, &r.Province, &r.PostalCode, &r.Tel, &r.Region} {
		*s = clean(*s)
	}
}

// Hospital converts the request into a new, unsaved hospital.
func (r *CreateHospitalRequest) Hospital() *Hospital {
	return &Hospital{
		Name:       r.Name,
		Address:    r.Address,
		District:   r.District,
		Province:   r.Province,
		PostalCode: r.PostalCode,
		Tel:        r.Tel,
		Region:     r.Region,
	}
}

// UpdateHospitalRequest is the body of PUT /hospitals/:id. Absent fields are
// left untouched.
type UpdateHospitalRequest struct {
	ID string `param:"id" json:"-" validate:"required,uuid"`

	Name       *string `json:"name" validate:"omitempty,max=50"`
	Address    *string `json:"address"`
	District   *string `json:"district"`
	Province   *string `json:"province"`
	PostalCode *string `json:"postalcode" validate:"omitempty,max=5"`
	Tel        *string `json:"tel"`
	Region     *string `json:"region"`
}

func (r *UpdateHospitalRequest) Validate() error {
	return validation.Struct(r)
}

func (r *UpdateHospitalRequest) Sanitize(clean func(string) string) {
	for _, s := range []*string{r.Name, r.Address, r.District, r.Province, r.PostalCode, r.Tel, r.Region} {
		if s != nil {
			*s = clean(*s)
		}
	}
}

// ApplyTo merges the present fields into h.
func (r *UpdateHospitalRequest) ApplyTo(h *Hospital) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}

	set(&h.Name, r.Name)
	set(&h.Address, r.Address)
	set(&h.District, r.District)
	set(&h.Province, r.Province)
	set(&h.PostalCode, r.PostalCode)
	set(&h.Tel, r.Tel)
	set(&h.Region, r.Region)
}
