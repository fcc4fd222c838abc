package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/vacq/internal/config"
	"github.com/deppfellow/vacq/internal/handler"
	"github.com/deppfellow/vacq/internal/model"
	"github.com/deppfellow/vacq/internal/service"
	"github.com/deppfellow/vacq/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	router *echo.Echo
	store  *testutil.Store
}

func newTestApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()

	srv := testutil.NewServer(cfg)
	store := testutil.NewStore()

	services, err := service.NewServices(srv, service.Stores{
		Hospitals:    store.Hospitals,
		Appointments: store.Appointments,
		VacCenters:   store.VacCenters,
	})
	require.NoError(t, err)

	return &testApp{
		router: NewRouter(srv, handler.NewHandlers(srv, services)),
		store:  store,
	}
}

func (a *testApp) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func hospitalBody(name, region string) map[string]string {
	return map[string]string{
		"name":       name,
		"address":    "270 Rama VI Road",
		"district":   "Ratchathewi",
		"province":   "Bangkok",
		"postalcode": "10400",
		"tel":        "02-201-1000",
		"region":     region,
	}
}

func (a *testApp) createHospital(t *testing.T, name, region string) map[string]any {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/hospitals", hospitalBody(name, region))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["data"].(map[string]any)
}

func TestHospitalLifecycle(t *testing.T) {
	app := newTestApp(t, nil)

	created := app.createHospital(t, "Ramathibodi", "Central")
	id := created["id"].(string)
	assert.Equal(t, "Ramathibodi", created["name"])
	assert.Equal(t, "10400", created["postalcode"])

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, created, body["data"])

	rec = app.do(t, http.MethodPut, "/api/v1/hospitals/"+id, map[string]string{"tel": "02-201-9999"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "02-201-9999", updated["tel"])
	assert.Equal(t, "Ramathibodi", updated["name"])

	rec = app.do(t, http.MethodDelete, "/api/v1/hospitals/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{}}`, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/v1/hospitals/"+id, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Hospital not found", body["data"])
}

func TestCreateHospitalValidation(t *testing.T) {
	app := newTestApp(t, nil)

	payload := hospitalBody("", "North")
	payload["postalcode"] = "123456"

	rec := app.do(t, http.MethodPost, "/api/v1/hospitals", payload)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])

	fields := map[string]string{}
	for _, e := range body["errors"].([]any) {
		fe := e.(map[string]any)
		fields[fe["field"].(string)] = fe["error"].(string)
	}
	assert.Equal(t, map[string]string{
		"name":       "is required",
		"postalcode": "must not exceed 5 characters",
	}, fields)
	assert.Zero(t, app.store.Hospitals.Len())
}

func TestCreateHospitalMalformedBody(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodPost, "/api/v1/hospitals", `{"name":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", decode(t, rec)["code"])
}

func TestCreateHospitalDuplicateName(t *testing.T) {
	app := newTestApp(t, nil)
	app.createHospital(t, "Siriraj", "Central")

	rec := app.do(t, http.MethodPost, "/api/v1/hospitals", hospitalBody("Siriraj", "North"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "HOSPITAL_ALREADY_EXISTS", decode(t, rec)["code"])
}

func TestCreateHospitalStripsMarkup(t *testing.T) {
	app := newTestApp(t, nil)

	created := app.createHospital(t, `<script>alert("x")</script>Vajira <b>Hospital</b>`, "Central")

	assert.Equal(t, "Vajira Hospital", created["name"])
}

func TestUpdateHospitalRevalidates(t *testing.T) {
	app := newTestApp(t, nil)
	id := app.createHospital(t, "Rajavithi", "Central")["id"].(string)

	rec := app.do(t, http.MethodPut, "/api/v1/hospitals/"+id, map[string]string{"name": ""})

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = app.do(t, http.MethodGet, "/api/v1/hospitals/"+id, nil)
	assert.Equal(t, "Rajavithi", decode(t, rec)["data"].(map[string]any)["name"])
}

func TestUpdateHospitalBodyCannotChangeID(t *testing.T) {
	app := newTestApp(t, nil)
	id := app.createHospital(t, "Rajavithi", "Central")["id"].(string)

	rec := app.do(t, http.MethodPut, "/api/v1/hospitals/"+id, map[string]string{
		"id":  "00000000-0000-0000-0000-000000000000",
		"tel": "1",
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, id, decode(t, rec)["data"].(map[string]any)["id"])
}

func TestGetHospitalInvalidID(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Equal(t, "id", errs[0].(map[string]any)["field"])
}

func TestListHospitalsQuery(t *testing.T) {
	app := newTestApp(t, nil)
	for _, name := range []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo"} {
		region := "North"
		if name != "Alpha" {
			region = "South"
		}
		app.createHospital(t, name, region)
	}

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals?region=South&select=name&sort=-name&page=1&limit=2", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.EqualValues(t, 2, body["count"])
	assert.Equal(t, map[string]any{
		"next": map[string]any{"page": float64(2), "limit": float64(2)},
	}, body["pagination"])

	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "Echo", first["name"])
	assert.Equal(t, "Delta", data[1].(map[string]any)["name"])
	assert.NotContains(t, first, "region")
	assert.Contains(t, first, "id")
	assert.Equal(t, []any{}, first["appointments"])
}

func TestListHospitalsComparisonOperators(t *testing.T) {
	app := newTestApp(t, nil)
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		app.createHospital(t, name, "North")
	}

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals?name[gte]=Bravo&sort=name", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	assert.Empty(t, body["pagination"])

	rec = app.do(t, http.MethodGet, "/api/v1/hospitals?name[in]=Alpha,Charlie", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["count"])
}

func TestListHospitalsRejectsUnknownOperator(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals?name[regex]=.*", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestListHospitalsDefaultProjection(t *testing.T) {
	app := newTestApp(t, nil)
	app.createHospital(t, "Alpha", "North")

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	first := decode(t, rec)["data"].([]any)[0].(map[string]any)
	assert.NotContains(t, first, "createdAt")
	assert.Contains(t, first, "updatedAt")
}

func TestVacCenters(t *testing.T) {
	app := newTestApp(t, nil)
	app.store.VacCenters.Add(model.VaccineCenter{ID: 1, Name: "Bang Sue", Tel: "02-111-1111"})

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals/vacCenters", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Bang Sue","tel":"02-111-1111"}]`, rec.Body.String())
}

func TestVacCentersFailure(t *testing.T) {
	app := newTestApp(t, nil)
	app.store.VacCenters.Err = assert.AnError

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals/vacCenters", nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Internal Server Error", body["data"])
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}

func TestAppointmentRoutes(t *testing.T) {
	app := newTestApp(t, nil)
	hospital := app.createHospital(t, "Chulalongkorn", "Central")
	hospitalID := hospital["id"].(string)

	rec := app.do(t, http.MethodPost, "/api/v1/hospitals/"+hospitalID+"/appointments", map[string]string{
		"apptDate": "2025-03-01T09:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	appt := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, hospitalID, appt["hospitalId"])
	assert.Equal(t, "local-admin", appt["user"])
	assert.Equal(t, "Chulalongkorn", appt["hospital"].(map[string]any)["name"])

	rec = app.do(t, http.MethodGet, "/api/v1/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 1, body["count"])

	rec = app.do(t, http.MethodGet, "/api/v1/hospitals/"+hospitalID+"/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["count"])

	apptID := appt["id"].(string)
	rec = app.do(t, http.MethodPut, "/api/v1/appointments/"+apptID, map[string]string{
		"apptDate": "2025-04-01T09:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2025-04-01T09:00:00Z", decode(t, rec)["data"].(map[string]any)["apptDate"])

	rec = app.do(t, http.MethodDelete, "/api/v1/appointments/"+apptID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.do(t, http.MethodGet, "/api/v1/appointments/"+apptID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No appointment with the id of "+apptID, decode(t, rec)["data"])
}

func TestCreateAppointmentUnknownHospital(t *testing.T) {
	app := newTestApp(t, nil)
	missing := "0b6f3a86-5b6e-4c53-9a44-3a0d1f7c2b11"

	rec := app.do(t, http.MethodPost, "/api/v1/hospitals/"+missing+"/appointments", map[string]string{
		"apptDate": "2025-03-01T09:00:00Z",
	})

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No hospital with the id of "+missing, decode(t, rec)["data"])
}

func TestCreateAppointmentRequiresDate(t *testing.T) {
	app := newTestApp(t, nil)
	hospitalID := app.createHospital(t, "Chulalongkorn", "Central")["id"].(string)

	rec := app.do(t, http.MethodPost, "/api/v1/hospitals/"+hospitalID+"/appointments", map[string]string{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"apptDate"`)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/api/v1/nowhere", nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode(t, rec)["data"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = app.do(t, http.MethodGet, "/api/v1/hospitals", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals", nil)

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Frame-Options"))
}

func TestCORSAllowsCredentials(t *testing.T) {
	app := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRateLimit(t *testing.T) {
	cfg := testutil.NewConfig()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.MaxRequests = 2
	app := newTestApp(t, cfg)

	for range 2 {
		rec := app.do(t, http.MethodGet, "/api/v1/hospitals", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := app.do(t, http.MethodGet, "/api/v1/hospitals", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decode(t, rec)["code"])
}

func TestBodyLimit(t *testing.T) {
	cfg := testutil.NewConfig()
	cfg.Server.BodyLimit = "1K"
	app := newTestApp(t, cfg)

	payload := hospitalBody(strings.Repeat("a", 2048), "North")
	rec := app.do(t, http.MethodPost, "/api/v1/hospitals", payload)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestStatusWithoutDatabase(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/status", nil)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unhealthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "unhealthy", checks["database"].(map[string]any)["status"])
	assert.Equal(t, "disabled", checks["redis"].(map[string]any)["status"])
}

func TestDocs(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.do(t, http.MethodGet, "/docs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	rec = app.do(t, http.MethodGet, "/static/openapi.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.0.3", decode(t, rec)["openapi"])
}
