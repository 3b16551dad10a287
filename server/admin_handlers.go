package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/jrsteele09/livee-admin-console/business"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 1000
)

// ListBusinessesHandler returns one page of businesses with their branches.
func (s *Server) ListBusinessesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fieldErrors := map[string][]string{}
		page := queryInt(r, "page", 1, fieldErrors)
		limit := queryInt(r, "limit", defaultPageLimit, fieldErrors)
		if page < 1 {
			fieldErrors["page"] = append(fieldErrors["page"], "page must be at least 1")
		}
		if limit < 1 || limit > maxPageLimit {
			fieldErrors["limit"] = append(fieldErrors["limit"], "limit must be between 1 and "+strconv.Itoa(maxPageLimit))
		} else if page > math.MaxInt/limit {
			fieldErrors["page"] = append(fieldErrors["page"], "page is out of range")
		}
		if len(fieldErrors) > 0 {
			s.writeError(w, http.StatusUnprocessableEntity, "Validation failed", fieldErrors)
			return
		}

		result, err := s.repos.Businesses.List(r.Context(), page, limit)
		if err != nil {
			s.writeRepoError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

// UpdateBranchStatusHandler sets the status of one branch of a business.
func (s *Server) UpdateBranchStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID := r.PathValue("businessId")

		var req business.UpdateBranchStatus
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			if errors.Is(err, apperrors.ErrInvalidStatus) {
				s.writeError(w, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{
					"status": {"status must be one of Pending, Approved, Rejected"},
				})
				return
			}
			s.writeError(w, http.StatusBadRequest, "Malformed request body", nil)
			return
		}

		fieldErrors := map[string][]string{}
		if !req.Status.Valid() {
			fieldErrors["status"] = []string{"status must be one of Pending, Approved, Rejected"}
		}
		if req.BranchID == "" {
			fieldErrors["branchId"] = []string{"branchId is required"}
		}
		if len(fieldErrors) > 0 {
			s.writeError(w, http.StatusUnprocessableEntity, "Validation failed", fieldErrors)
			return
		}

		if err := s.repos.Businesses.UpdateBranchStatus(r.Context(), businessID, req.BranchID, req.Status); err != nil {
			s.writeRepoError(w, err)
			return
		}
		s.log.Info().Str("businessId", businessID).Str("branchId", req.BranchID).Str("status", req.Status.String()).Msg("branch status updated")
		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteBranchHandler soft deletes a branch; it stays listed with deletedAt set.
func (s *Server) DeleteBranchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		branchID := r.PathValue("id")
		if err := s.repos.Businesses.DeleteBranch(r.Context(), branchID, s.now()); err != nil {
			s.writeRepoError(w, err)
			return
		}
		s.log.Info().Str("branchId", branchID).Msg("branch deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) DeleteBusinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		businessID := r.PathValue("businessId")
		if err := s.repos.Businesses.DeleteBusiness(r.Context(), businessID); err != nil {
			s.writeRepoError(w, err)
			return
		}
		s.log.Info().Str("businessId", businessID).Msg("business deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrBusinessNotFound):
		s.writeError(w, http.StatusNotFound, "Business not found", nil)
	case errors.Is(err, apperrors.ErrBranchNotFound):
		s.writeError(w, http.StatusNotFound, "Branch not found", nil)
	case errors.Is(err, apperrors.ErrInvalidStatus):
		s.writeError(w, http.StatusUnprocessableEntity, "Validation failed", map[string][]string{
			"status": {"status must be one of Pending, Approved, Rejected"},
		})
	default:
		s.log.Error().Err(err).Msg("business repo failure")
		s.writeError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

func queryInt(r *http.Request, name string, fallback int, fieldErrors map[string][]string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fieldErrors[name] = append(fieldErrors[name], name+" must be an integer")
		return fallback
	}
	return v
}
