package email

// PreviewData contains sample template data for local preview/testing.
//
//	PreviewData["appointment_confirmation"]["HospitalName"] == "Siriraj Hospital"
var PreviewData = map[Template]map[string]string{
	TemplateAppointmentConfirmation: {
		"AppointmentID": "5f0c4b7e-8a57-4cf3-9d53-2f3f3e0b7a10",
		"HospitalName":  "Siriraj Hospital",
		"HospitalTel":   "02-419-7000",
		"ApptDate":      "Mon, 06 Jan 2025 09:30 UTC",
	},
}
