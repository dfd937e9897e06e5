package adapthttp

import (
	"net/http"

	"go.uber.org/zap"

	"babyplate/internal/domain"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	babyID, err := pathID(r, "babyID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if wantsWatch(r) {
		ch, err := s.plans.PlansForBaby(r.Context(), babyID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		streamSnapshots(w, r, ch)
		return
	}
	plans, err := s.plans.ListPlans(r.Context(), babyID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": plans})
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	babyID, err := pathID(r, "babyID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var p domain.Plan
	if err := parseJSON(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	p.BabyID = babyID
	saved, err := s.plans.InsertPlan(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var p domain.Plan
	if err := parseJSON(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	p.ID = id
	saved, err := s.plans.UpdatePlan(r.Context(), p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "planID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.plans.DeletePlan(r.Context(), domain.Plan{ID: id}); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	items, err := s.plans.AuditLog(r.Context(), intQuery(r, "limit", 50))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, errNoSync)
		return
	}
	report, err := s.syncer.Sync(r.Context())
	if err != nil {
		s.log.Warn("sync failed", zap.Error(err))
		writeJSON(w, statusFor(err), map[string]any{"error": err.Error(), "report": report})
		return
	}
	writeJSON(w, http.StatusOK, report)
}
