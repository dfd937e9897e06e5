package adapthttp

import (
	"net/http"

	"babyplate/internal/domain"
)

const defaultDays = 7

func (s *Server) handleWeekly(w http.ResponseWriter, r *http.Request) {
	babyID, err := pathID(r, "babyID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		StartDate string `json:"startDate"`
		Days      int    `json:"days"`
	}
	if err := parseJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.Days == 0 {
		body.Days = defaultDays
	}
	plan, err := s.recs.GenerateWeekly(r.Context(), babyID, body.StartDate, body.Days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	babyID, err := pathID(r, "babyID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		Date string `json:"date"`
	}
	if err := parseJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	plan, err := s.recs.GenerateDaily(r.Context(), babyID, body.Date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	babyID, err := pathID(r, "babyID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		Plan domain.WeeklyMealPlan `json:"plan"`
	}
	if err := parseJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	conflicts, err := s.recs.DetectConflicts(r.Context(), babyID, body.Plan)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conflicts": conflicts})
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	babyID, err := pathID(r, "babyID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body struct {
		Plan       domain.WeeklyMealPlan     `json:"plan"`
		Resolution domain.ConflictResolution `json:"resolution"`
		Edits      []domain.PlannedMeal      `json:"edits"`
	}
	if err := parseJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.recs.SaveRecommendation(r.Context(), babyID, body.Plan, body.Resolution, body.Edits)
	if err != nil {
		status := statusFor(err)
		if res.Message == "" || status == http.StatusInternalServerError {
			res.Message = http.StatusText(status)
			if status != http.StatusInternalServerError {
				res.Message = err.Error()
			}
		}
		writeJSON(w, status, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
