package http

import (
	"net/http"

	"substack/internal/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in services.Credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "User")
		return
	}

	res, err := s.svc.Accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in services.Credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "User")
		return
	}

	res, err := s.svc.Accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	user, err := s.svc.Accounts.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateNotifications(w http.ResponseWriter, r *http.Request, userID int64) {
	var in services.UpdateNotificationsInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, "User")
		return
	}

	prefs, err := s.svc.Accounts.UpdateNotifications(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, "User")
		return
	}
	writeJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleReminderHistory(w http.ResponseWriter, r *http.Request, userID int64) {
	q := NewQueryParser(r.URL.Query())
	limit := q.IntRange("limit", services.DefaultPageLimit, 1, services.MaxPageLimit)
	offset := q.MinInt("offset", 0, 0)
	if err := q.Err(); err != nil {
		writeError(w, r, err, "Reminder")
		return
	}

	history, err := s.svc.Accounts.ReminderHistory(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, err, "Reminder")
		return
	}
	writeJSON(w, http.StatusOK, history)
}
