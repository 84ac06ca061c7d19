package http

import (
	"net/http"

	"substack/internal/core"
	"substack/internal/services"
	"substack/internal/storage"
)

const subscriptionResource = "Subscription"

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request, userID int64) {
	q := NewQueryParser(r.URL.Query())
	in := services.ListSubscriptionsInput{
		Filter: storage.SubscriptionFilter{
			Status:       q.String("status", storage.StatusFilterActive),
			BillingCycle: core.BillingCycle(q.String("billing_cycle", "")),
			CostMin:      q.OptionalNonNegativeFloat("cost_min"),
			CostMax:      q.OptionalNonNegativeFloat("cost_max"),
			CategoryID:   q.OptionalInt64("category_id"),
			Category:     q.OptionalString("category", 0),
			Sort:         q.String("sort_by", storage.SortNextBillingDate),
			Order:        q.String("order", storage.OrderAsc),
		},
		Limit:  q.IntRange("limit", services.DefaultPageLimit, 1, services.MaxPageLimit),
		Offset: q.MinInt("offset", 0, 0),
	}
	if search := q.OptionalString("search", 100); search != nil {
		in.Filter.Search = *search
	}
	if err := q.Err(); err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}

	page, err := s.svc.Subscriptions.List(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request, userID int64) {
	var in services.CreateSubscriptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}

	sub, err := s.svc.Subscriptions.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request, userID int64) {
	q := NewQueryParser(r.URL.Query())
	days := q.IntRange("days", services.DefaultUpcomingDays, services.MinUpcomingDays, services.MaxUpcomingDays)
	if err := q.Err(); err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}

	list, err := s.svc.Subscriptions.Upcoming(r.Context(), userID, days)
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleSavingsSummary(w http.ResponseWriter, r *http.Request, userID int64) {
	summary, err := s.svc.Subscriptions.SavingsSummary(r.Context(), userID)
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}

	sub, err := s.svc.Subscriptions.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}

	var in services.UpdateSubscriptionInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	in.IfUnmodifiedSince = parseIfUnmodifiedSince(r.Header.Get("If-Unmodified-Since"))

	sub, err := s.svc.Subscriptions.Update(r.Context(), userID, id, in)
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}

	if err := s.svc.Subscriptions.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

// subscriptionAction adapts the single-id POST endpoints.
func (s *Server) subscriptionAction(w http.ResponseWriter, r *http.Request, userID int64, do func(id int64) (any, error)) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}

	res, err := do(id)
	if err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMarkUsed(w http.ResponseWriter, r *http.Request, userID int64) {
	s.subscriptionAction(w, r, userID, func(id int64) (any, error) {
		return s.svc.Subscriptions.MarkUsed(r.Context(), userID, id)
	})
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request, userID int64) {
	s.subscriptionAction(w, r, userID, func(id int64) (any, error) {
		return s.svc.Subscriptions.Restore(r.Context(), userID, id)
	})
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, userID int64) {
	var in services.CancelInput
	if err := decodeOptionalJSON(w, r, &in); err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	s.subscriptionAction(w, r, userID, func(id int64) (any, error) {
		return s.svc.Subscriptions.Cancel(r.Context(), userID, id, in)
	})
}

func (s *Server) handleReactivate(w http.ResponseWriter, r *http.Request, userID int64) {
	var in services.ReactivateInput
	if err := decodeOptionalJSON(w, r, &in); err != nil {
		writeError(w, r, err, subscriptionResource)
		return
	}
	s.subscriptionAction(w, r, userID, func(id int64) (any, error) {
		return s.svc.Subscriptions.Reactivate(r.Context(), userID, id, in)
	})
}
