package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"zapis/internal/booking"
	"zapis/internal/config"
	"zapis/internal/database"
	"zapis/internal/models"
	"zapis/internal/verification"

	"github.com/rs/zerolog"
)

type captureSMS struct {
	lastPhone string
	lastCode  string
}

func (c *captureSMS) SendCode(_ context.Context, phone, code string) error {
	c.lastPhone = phone
	c.lastCode = code
	return nil
}

type testServer struct {
	http *httptest.Server
	db   *database.DB
	sms  *captureSMS
}

func newTestServer(t *testing.T, apiCfg config.APIConfig) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), time.UTC, &logger)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	err = db.SeedServices(ctx, []models.Service{
		{ID: 1, Name: "Стрижка", DurationMinutes: 45, PriceCents: 150000, IsActive: true},
		{ID: 2, Name: "Бритьё", DurationMinutes: 30, PriceCents: 80000, IsActive: true},
	})
	if err != nil {
		t.Fatalf("seed services: %v", err)
	}

	bookingCfg := config.BookingConfig{
		GranularityMinutes: 30,
		MaxAdvanceDays:     60,
		CodeLength:         4,
		CodeTTLSeconds:     300,
		SendLimit:          5,
		SendWindowSeconds:  600,
	}

	ledger := verification.NewMemoryLedger(bookingCfg.CodeLength, bookingCfg.CodeTTL())
	sms := &captureSMS{}
	engine := booking.NewEngine(db, ledger, sms, nil, nil, bookingCfg, time.UTC, &logger)

	server := NewHTTPServer(apiCfg, engine, &logger)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	return &testServer{http: ts, db: db, sms: sms}
}

// futureDate настраивает рабочий день через неделю и возвращает его дату.
func futureDate(t *testing.T, db *database.DB) string {
	t.Helper()
	date := time.Now().UTC().AddDate(0, 0, 7)
	day := models.DaySchedule{
		Available: true,
		Ranges:    []models.TimeRange{{Start: "09:00", End: "13:00"}},
		Breaks:    []models.TimeRange{{Start: "11:00", End: "11:30"}},
	}
	if err := db.UpsertWeekday(context.Background(), int(date.Weekday()), day); err != nil {
		t.Fatalf("upsert weekday: %v", err)
	}
	return date.Format("2006-01-02")
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestSlots(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})
	date := futureDate(t, ts.db)

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/slots?date=%s&service_id=1", ts.http.URL, date))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}

	var body struct {
		Slots []struct {
			Clock string `json:"clock"`
		} `json:"slots"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	clocks := make(map[string]bool, len(body.Slots))
	for _, s := range body.Slots {
		clocks[s.Clock] = true
	}
	if !clocks["09:00"] || !clocks["11:30"] {
		t.Fatalf("expected 09:00 and 11:30 offered, got %v", clocks)
	}
	if clocks["11:00"] {
		t.Fatalf("slot inside break must not be offered")
	}
}

func TestSlotsValidation(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})

	cases := []struct {
		name string
		url  string
		want int
	}{
		{"MissingDate", "/api/v1/slots?service_id=1", http.StatusBadRequest},
		{"BadDate", "/api/v1/slots?date=25.12.2026&service_id=1", http.StatusBadRequest},
		{"MissingService", "/api/v1/slots?date=2026-12-25", http.StatusBadRequest},
		{"PastDate", "/api/v1/slots?date=2020-01-01&service_id=1", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(ts.http.URL + tc.url)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
		})
	}
}

func TestPublicBookingFlow(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})
	date := futureDate(t, ts.db)
	phone := "+79991112233"

	resp := postJSON(t, ts.http.URL+"/api/v1/verification/send", map[string]string{"phone": phone})
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("send code: expected 202, got %d", resp.StatusCode)
	}
	if ts.sms.lastCode == "" || ts.sms.lastPhone != phone {
		t.Fatalf("expected code dispatched to %s", phone)
	}

	// Неверный код не тратит выданный
	resp = postJSON(t, ts.http.URL+"/api/v1/bookings", map[string]any{
		"phone": phone, "code": "0000", "service_id": 1, "date": date, "slot": "10:00",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("wrong code: expected 422, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.http.URL+"/api/v1/bookings", map[string]any{
		"phone": phone, "code": ts.sms.lastCode, "service_id": 1, "date": date, "slot": "10:00",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("booking: expected 201, got %d", resp.StatusCode)
	}

	var appt models.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	if appt.ServiceName != "Стрижка" || appt.DurationMinutes != 45 {
		t.Fatalf("unexpected appointment: %+v", appt)
	}
	if appt.PublicID == "" {
		t.Fatalf("expected public id")
	}

	// Тот же слот другим номером: занят
	other := "+79995556677"
	resp = postJSON(t, ts.http.URL+"/api/v1/verification/send", map[string]string{"phone": other})
	resp.Body.Close()
	resp = postJSON(t, ts.http.URL+"/api/v1/bookings", map[string]any{
		"phone": other, "code": ts.sms.lastCode, "service_id": 2, "date": date, "slot": "10:00",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("taken slot: expected 409, got %d", resp.StatusCode)
	}
}

func TestAdminAuth(t *testing.T) {
	cfg := config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			APIKeys: []config.APIClientKey{
				{Key: "admin-key", Extra: "admin-extra", Name: "crm"},
				{Key: "limited-key", Extra: "limited-extra", Name: "readonly", Permissions: []string{"admin:services"}},
			},
		},
	}
	ts := newTestServer(t, cfg)

	get := func(key, extra string) int {
		req, _ := http.NewRequest(http.MethodGet, ts.http.URL+"/api/v1/admin/schedule", nil)
		if key != "" {
			req.Header.Set("x-api-key", key)
			req.Header.Set("x-api-extra", extra)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if got := get("", ""); got != http.StatusUnauthorized {
		t.Fatalf("no headers: expected 401, got %d", got)
	}
	if got := get("admin-key", "wrong"); got != http.StatusUnauthorized {
		t.Fatalf("wrong extra: expected 401, got %d", got)
	}
	if got := get("unknown", "admin-extra"); got != http.StatusUnauthorized {
		t.Fatalf("unknown key: expected 401, got %d", got)
	}
	if got := get("admin-key", "admin-extra"); got != http.StatusOK {
		t.Fatalf("valid key: expected 200, got %d", got)
	}
	if got := get("limited-key", "limited-extra"); got != http.StatusForbidden {
		t.Fatalf("missing permission: expected 403, got %d", got)
	}

	// Публичные ручки не требуют ключа
	resp, err := http.Get(ts.http.URL + "/api/v1/slots?date=2020-01-01&service_id=1")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		t.Fatalf("public endpoint must not require api key")
	}
}

func TestAdminScheduleRoundTrip(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})

	weekly := map[string]models.DaySchedule{
		"1": {Available: true, Ranges: []models.TimeRange{{Start: "09:00", End: "18:00"}}},
		"2": {Available: false},
	}
	body, _ := json.Marshal(weekly)
	req, _ := http.NewRequest(http.MethodPut, ts.http.URL+"/api/v1/admin/schedule", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put schedule: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.http.URL + "/api/v1/admin/schedule")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var got struct {
		Schedule models.WeeklySchedule `json:"schedule"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	monday, ok := got.Schedule[1]
	if !ok || !monday.Available || len(monday.Ranges) != 1 {
		t.Fatalf("unexpected schedule: %+v", got.Schedule)
	}
}

func TestAdminExceptionLifecycle(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})
	const date = "2026-12-25"

	day := models.DaySchedule{Available: false}
	body, _ := json.Marshal(day)
	req, _ := http.NewRequest(http.MethodPut, ts.http.URL+"/api/v1/admin/exceptions/"+date, bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put exception: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.http.URL + "/api/v1/admin/exceptions/" + date)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get exception: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.http.URL + "/api/v1/admin/exceptions?from=2026-12-01&to=2026-12-31")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	var list struct {
		Exceptions []models.ScheduleException `json:"exceptions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	resp.Body.Close()
	if len(list.Exceptions) != 1 || list.Exceptions[0].Date != date {
		t.Fatalf("unexpected exceptions: %+v", list.Exceptions)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.http.URL+"/api/v1/admin/exceptions/"+date, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete exception: expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.http.URL + "/api/v1/admin/exceptions/" + date)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted exception: expected 404, got %d", resp.StatusCode)
	}
}

func TestAdminExceptionRange(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})

	resp := postJSON(t, ts.http.URL+"/api/v1/admin/exceptions/range", map[string]any{
		"from": "2026-12-30",
		"to":   "2027-01-02",
		"day":  models.DaySchedule{Available: false},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Updated int `json:"updated"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Updated != 4 {
		t.Fatalf("expected 4 days updated, got %d", body.Updated)
	}
}

func TestAdminAppointmentStatus(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})
	date := futureDate(t, ts.db)
	phone := "+79993334455"

	resp := postJSON(t, ts.http.URL+"/api/v1/verification/send", map[string]string{"phone": phone})
	resp.Body.Close()
	resp = postJSON(t, ts.http.URL+"/api/v1/bookings", map[string]any{
		"phone": phone, "code": ts.sms.lastCode, "service_id": 1, "date": date, "slot": "09:30",
	})
	var appt models.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appt); err != nil {
		t.Fatalf("decode appointment: %v", err)
	}
	resp.Body.Close()

	statusURL := fmt.Sprintf("%s/api/v1/admin/appointments/%d/status", ts.http.URL, appt.ID)

	resp = postJSON(t, statusURL, map[string]any{"status": "checked-in", "version": appt.Version})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("invalid status: expected 400, got %d", resp.StatusCode)
	}

	resp = postJSON(t, statusURL, map[string]any{"status": models.StatusCompleted, "version": appt.Version})
	var updated models.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status: expected 200, got %d", resp.StatusCode)
	}
	if updated.Status != models.StatusCompleted || updated.Version != appt.Version+1 {
		t.Fatalf("unexpected updated appointment: %+v", updated)
	}

	// Устаревшая версия
	resp = postJSON(t, statusURL, map[string]any{"status": models.StatusPaid, "version": appt.Version})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("stale version: expected 409, got %d", resp.StatusCode)
	}

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/admin/appointments?from=%s&to=%s", ts.http.URL, date, date))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	var list struct {
		Appointments []models.Appointment `json:"appointments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Appointments) != 1 || list.Appointments[0].Status != models.StatusCompleted {
		t.Fatalf("unexpected appointments: %+v", list.Appointments)
	}
}

func TestServices(t *testing.T) {
	ts := newTestServer(t, config.APIConfig{})

	resp, err := http.Get(ts.http.URL + "/api/v1/admin/services")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Services []models.Service `json:"services"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(body.Services))
	}
}

func TestRateLimit(t *testing.T) {
	cfg := config.APIConfig{
		Enabled:   true,
		RateLimit: config.APIRateLimitConfig{RPS: 1, Burst: 1},
	}
	ts := newTestServer(t, cfg)

	var got429 bool
	for i := 0; i < 5; i++ {
		resp, err := http.Get(ts.http.URL + "/api/v1/slots?date=2026-12-25&service_id=1")
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			got429 = true
			break
		}
	}
	if !got429 {
		t.Fatalf("expected rate limit to trigger")
	}
}
