package handler

import (
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/query"
)

// DataResponse is the success envelope of single-resource endpoints.
type DataResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func ok[T any](data T) DataResponse[T] {
	return DataResponse[T]{Success: true, Data: data}
}

// HospitalListResponse is one page of GET /hospitals. Count is the number
// of hospitals in Data.
type HospitalListResponse struct {
	Success    bool             `json:"success"`
	Count      int              `json:"count"`
	Pagination query.Pagination `json:"pagination"`
	Data       []map[string]any `json:"data"`
}

func (r HospitalListResponse) Len() int { return r.Count }

// AppointmentListResponse is the body of the appointment listings.
type AppointmentListResponse struct {
	Success bool                `json:"success"`
	Count   int                 `json:"count"`
	Data    []model.Appointment `json:"data"`
}

func (r AppointmentListResponse) Len() int { return r.Count }

// empty renders as {} in DELETE responses.
type empty struct{}
