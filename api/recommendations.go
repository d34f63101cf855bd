package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/recommend"
	"github.com/raushankrgupta/tailor-connect/utils"
	"github.com/raushankrgupta/tailor-connect/validation"
)

// Recommendations returns tailors matching the customer's request.
func (s *Server) Recommendations(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Recommendations API]")

	if s.Recommender == nil {
		return apperrors.Recommendation(recommend.FailureMessage, nil)
	}
	raw, err := decodeRaw(r)
	if err != nil {
		return err
	}
	req, fieldErrs := validation.ValidateRecommendation(raw)
	if len(fieldErrs) > 0 {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Validation failed: %v", fieldErrs))
		return apperrors.Validation("Invalid form data. Please check your inputs.", fieldErrs)
	}

	candidates, err := s.Recommender.Recommend(r.Context(), req)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Recommendation failed: %v", err))
		return err
	}

	if len(candidates) == 0 {
		utils.RespondSuccess(w, http.StatusOK, "No tailors found matching your criteria.", []models.TailorCandidate{})
		return nil
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Found %d tailors", len(candidates)))
	utils.RespondSuccess(w, http.StatusOK, "Successfully found recommendations.", candidates)
	return nil
}
