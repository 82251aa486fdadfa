package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"zapis/internal/models"
)

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if !isDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	serviceID, err := parseID(r.URL.Query().Get("service_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "service_id is required")
		return
	}

	slots, err := s.engine.ListAvailableSlots(r.Context(), date, serviceID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":       date,
		"service_id": serviceID,
		"slots":      slots,
	})
}

func (s *HTTPServer) handleSendCode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Phone string `json:"phone"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Phone) == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	if err := s.engine.SendVerificationCode(r.Context(), body.Phone); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code_sent"})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Phone     string `json:"phone"`
		Code      string `json:"code"`
		ServiceID int64  `json:"service_id"`
		Date      string `json:"date"`
		Slot      string `json:"slot"`
		Notes     string `json:"notes"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Phone) == "" || strings.TrimSpace(body.Code) == "" {
		writeError(w, http.StatusBadRequest, "phone and code are required")
		return
	}

	appt, err := s.engine.VerifyAndBook(r.Context(), body.Phone, body.Code, body.ServiceID, body.Date, body.Slot, body.Notes)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, appt)
}

func (s *HTTPServer) handleSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		weekly, err := s.engine.GetWeeklySchedule(r.Context())
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"schedule": weekly})
	case http.MethodPut:
		var weekly models.WeeklySchedule
		if err := decodeJSON(r, &weekly); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		for weekday, day := range weekly {
			if err := s.engine.UpsertWeekday(r.Context(), weekday, day); err != nil {
				writeEngineError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": len(weekly)})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleExceptionList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if !isDate(from) || !isDate(to) {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD dates")
		return
	}

	exceptions, err := s.engine.ListExceptions(r.Context(), from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exceptions": exceptions})
}

func (s *HTTPServer) handleExceptionRange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		From string             `json:"from"`
		To   string             `json:"to"`
		Day  models.DaySchedule `json:"day"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if !isDate(body.From) || !isDate(body.To) {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD dates")
		return
	}

	count, err := s.engine.UpsertExceptionRange(r.Context(), body.From, body.To, body.Day)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": count})
}

func (s *HTTPServer) handleException(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/admin/exceptions/"
	date := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, prefix))
	if strings.Contains(date, "/") || !isDate(date) {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	switch r.Method {
	case http.MethodGet:
		exc, err := s.engine.GetException(r.Context(), date)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exc)
	case http.MethodPut:
		var day models.DaySchedule
		if err := decodeJSON(r, &day); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		exc := &models.ScheduleException{Date: date, DaySchedule: day}
		if err := s.engine.UpsertException(r.Context(), exc); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, exc)
	case http.MethodDelete:
		if err := s.engine.DeleteException(r.Context(), date); err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleAppointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	from := strings.TrimSpace(r.URL.Query().Get("from"))
	to := strings.TrimSpace(r.URL.Query().Get("to"))
	if !isDate(from) || !isDate(to) {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD dates")
		return
	}

	appts, err := s.engine.GetAppointments(r.Context(), from, to)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"appointments": appts})
}

// handleAppointmentStatus обслуживает POST /api/v1/admin/appointments/{id}/status.
func (s *HTTPServer) handleAppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/admin/appointments/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[1] != "status" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	id, err := parseID(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var body struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !models.ValidStatuses[body.Status] {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	appt, err := s.engine.UpdateAppointmentStatus(r.Context(), id, body.Version, body.Status)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

func (s *HTTPServer) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	services, err := s.engine.GetActiveServices(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func isDate(s string) bool {
	_, err := time.Parse(models.DateLayout, s)
	return err == nil
}
