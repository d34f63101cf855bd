package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/onboarding"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/utils"
)

// OnboardingState returns the caller's onboarding position.
func (s *Server) OnboardingState(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	view, err := s.Flow.Current(r.Context(), sess.Role, sess.UID)
	if err != nil {
		return err
	}
	utils.RespondSuccess(w, http.StatusOK, "", view)
	return nil
}

// OnboardingSubmit saves the fields of one onboarding step.
func (s *Server) OnboardingSubmit(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Onboarding Step API]")

	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(mux.Vars(r)["step"])
	if err != nil {
		return apperrors.NotFound("Unknown onboarding step.")
	}
	raw, err := decodeRaw(r)
	if err != nil {
		return err
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("uid=%s role=%s step=%d", sess.UID, sess.Role, n))
	view, err := s.Flow.Submit(r.Context(), sess.Role, sess.UID, onboarding.Step(n), raw)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Submit failed: %v", err))
		return err
	}

	message := "Progress saved."
	if view.Completed {
		message = "Profile completed successfully!"
	}
	utils.AddToLogMessage(&logMessageBuilder, message)
	utils.RespondSuccess(w, http.StatusOK, message, view)
	return nil
}

// OnboardingBack moves the caller one step back.
func (s *Server) OnboardingBack(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	view, err := s.Flow.Back(r.Context(), sess.Role, sess.UID)
	if err != nil {
		return err
	}
	utils.RespondSuccess(w, http.StatusOK, "", view)
	return nil
}
