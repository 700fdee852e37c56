package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/family"
)

// GradeRequest is the body of POST /api/activities/{id}/grade.
type GradeRequest struct {
	MathCorrect    *int `json:"math_correct" validate:"required,gte=0"`
	ReadingCorrect *int `json:"reading_correct" validate:"required,gte=0"`
}

// EnsureParentRequest is the body of PUT /api/parents/{id}.
type EnsureParentRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *handler) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

func (h *handler) ensureParent(w http.ResponseWriter, r *http.Request) {
	var req EnsureParentRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p, err := h.Families.EnsureParent(r.Context(), family.NewParent{
		ID:       chi.URLParam(r, "parentID"),
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *handler) getParent(w http.ResponseWriter, r *http.Request) {
	p, err := h.Families.GetParent(r.Context(), chi.URLParam(r, "parentID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *handler) addChild(w http.ResponseWriter, r *http.Request) {
	var req family.NewChild
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	c, err := h.Families.AddChild(r.Context(), chi.URLParam(r, "parentID"), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *handler) todayActivity(w http.ResponseWriter, r *http.Request) {
	c, err := h.Families.Child(r.Context(), chi.URLParam(r, "parentID"), chi.URLParam(r, "childID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	a, err := h.Activities.GetOrCreateToday(r.Context(), c.ActivityLearner())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *handler) completedActivities(w http.ResponseWriter, r *http.Request) {
	list, err := h.Activities.ListCompleted(r.Context(), chi.URLParam(r, "childID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if list == nil {
		list = []activity.Activity{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *handler) markViewed(w http.ResponseWriter, r *http.Request) {
	if err := h.Activities.MarkViewed(r.Context(), chi.URLParam(r, "activityID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) grade(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if err := h.decode(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, r, err)
		return
	}
	a, err := h.Activities.Grade(r.Context(), chi.URLParam(r, "activityID"), *req.MathCorrect, *req.ReadingCorrect)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *handler) spellingProgress(w http.ResponseWriter, r *http.Request) {
	results, err := h.Families.SpellingProgress(r.Context(), chi.URLParam(r, "parentID"), chi.URLParam(r, "childID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}
