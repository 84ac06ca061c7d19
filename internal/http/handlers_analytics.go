package http

import (
	"net/http"

	"substack/internal/analytics"
)

const analyticsResource = "Subscription"

func (s *Server) handleMonthlyCosts(w http.ResponseWriter, r *http.Request, userID int64) {
	q := NewQueryParser(r.URL.Query())
	monthParam := q.OptionalString("month", 0)
	includeFreeTrials := q.Bool("include_free_trials", true)
	if err := q.Err(); err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}

	var window *analytics.MonthWindow
	if monthParam != nil {
		mw, err := analytics.ParseMonth(*monthParam)
		if err != nil {
			writeError(w, r, err, analyticsResource)
			return
		}
		window = &mw
	}

	report, err := s.svc.Analytics.MonthlyCosts(r.Context(), userID, window, includeFreeTrials)
	if err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCombinedAnalytics(w http.ResponseWriter, r *http.Request, userID int64) {
	report, err := s.svc.Analytics.Combined(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request, userID int64) {
	q := NewQueryParser(r.URL.Query())
	months := q.IntRange("months", analytics.DefaultTrendMonths, analytics.MinTrendMonths, analytics.MaxTrendMonths)
	if err := q.Err(); err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}

	trends, err := s.svc.Analytics.Trends(r.Context(), userID, months)
	if err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleTop(w http.ResponseWriter, r *http.Request, userID int64) {
	q := NewQueryParser(r.URL.Query())
	limit := q.IntRange("limit", analytics.DefaultTopLimit, analytics.MinTopLimit, analytics.MaxTopLimit)
	if err := q.Err(); err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}

	top, err := s.svc.Analytics.Top(r.Context(), userID, limit)
	if err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleForgotten(w http.ResponseWriter, r *http.Request, userID int64) {
	q := NewQueryParser(r.URL.Query())
	threshold := q.IntRange("threshold_days", analytics.DefaultForgottenThresholdDays,
		analytics.MinForgottenThresholdDays, analytics.MaxForgottenThresholdDays)
	if err := q.Err(); err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}

	report, err := s.svc.Analytics.Forgotten(r.Context(), userID, threshold)
	if err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSavingsSuggestions(w http.ResponseWriter, r *http.Request, userID int64) {
	report, err := s.svc.Analytics.SavingsSuggestions(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, analyticsResource)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
