package adapthttp

import (
	"net/http"

	"babyplate/internal/domain"
)

func (s *Server) handleListBabies(w http.ResponseWriter, r *http.Request) {
	if wantsWatch(r) {
		ch, err := s.catalog.AllBabies(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		streamSnapshots(w, r, ch)
		return
	}
	babies, err := s.catalog.ListBabies(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": babies})
}

func (s *Server) handleCreateBaby(w http.ResponseWriter, r *http.Request) {
	var b domain.Baby
	if err := parseJSON(r, &b); err != nil {
		s.fail(w, r, err)
		return
	}
	b.ID = 0
	saved, err := s.catalog.SaveBaby(r.Context(), b)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateBaby(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "babyID")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var b domain.Baby
	if err := parseJSON(r, &b); err != nil {
		s.fail(w, r, err)
		return
	}
	b.ID = id
	saved, err := s.catalog.SaveBaby(r.Context(), b)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	if wantsWatch(r) {
		ch, err := s.catalog.AllRecipes(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		streamSnapshots(w, r, ch)
		return
	}
	recipes, err := s.catalog.ListRecipes(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recipes})
}

func (s *Server) handleImportRecipes(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Recipes []domain.Recipe `json:"recipes"`
	}
	if err := parseJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.catalog.ImportRecipes(r.Context(), body.Recipes); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"imported": len(body.Recipes)})
}
