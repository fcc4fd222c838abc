package email

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/deppfellow/vacq/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(buf *bytes.Buffer) *Client {
	logger := zerolog.New(buf)
	return NewClient(&config.Config{
		Integration: config.IntegrationConfig{MailFrom: "VacQ <noreply@example.com>"},
	}, &logger)
}

func TestRender_PreviewData(t *testing.T) {
	c := newTestClient(&bytes.Buffer{})

	for name, data := range PreviewData {
		t.Run(string(name), func(t *testing.T) {
			html, err := c.Render(name, data)
			require.NoError(t, err)
			for _, v := range data {
				assert.Contains(t, html, v)
			}
		})
	}
}

func TestRender_EscapesData(t *testing.T) {
	c := newTestClient(&bytes.Buffer{})

	html, err := c.Render(TemplateAppointmentConfirmation, map[string]string{
		"HospitalName": "<script>x</script>",
	})
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRender_UnknownTemplate(t *testing.T) {
	c := newTestClient(&bytes.Buffer{})

	_, err := c.Render("missing", nil)
	assert.Error(t, err)
}

func TestSendAppointmentConfirmation_WithoutAPIKeyLogsOnly(t *testing.T) {
	var buf bytes.Buffer
	c := newTestClient(&buf)

	err := c.SendAppointmentConfirmation(context.Background(), "ann@example.com", AppointmentDetails{
		AppointmentID: "a1",
		HospitalName:  "Siriraj Hospital",
		ApptDate:      time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "email not sent")
	assert.Contains(t, buf.String(), "ann@example.com")
}

func TestAppointmentDetails_TemplateData(t *testing.T) {
	bangkok := time.FixedZone("ICT", 7*60*60)
	data := AppointmentDetails{ApptDate: time.Date(2025, 1, 6, 16, 30, 0, 0, bangkok)}.templateData()

	assert.Equal(t, "Mon, 06 Jan 2025 09:30 UTC", data["ApptDate"])
}
