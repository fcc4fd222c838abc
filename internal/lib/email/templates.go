package email

import (
	"embed"
	"time"
)

// Template names an HTML file under templates/.
type Template string

const (
	TemplateAppointmentConfirmation Template = "appointment_confirmation"
)

//go:embed templates/*.html
var templates embed.FS

// AppointmentDetails fills the appointment confirmation template.
type AppointmentDetails struct {
	AppointmentID string
	HospitalName  string
	HospitalTel   string
	ApptDate      time.Time
}

// apptDateLayout renders dates like "Mon, 02 Jan 2006 15:04 UTC".
const apptDateLayout = "Mon, 02 Jan 2006 15:04 MST"

func (d AppointmentDetails) templateData() map[string]string {
	return map[string]string{
		"AppointmentID": d.AppointmentID,
		"HospitalName":  d.HospitalName,
		"HospitalTel":   d.HospitalTel,
		"ApptDate":      d.ApptDate.UTC().Format(apptDateLayout),
	}
}
