package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/measurement"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/utils"
	"github.com/raushankrgupta/tailor-connect/validation"
	"go.uber.org/zap"
)

const maxPhotoSize = 5 << 20

// GetProfile returns the caller's profile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	role, err := pathRole(r, sess)
	if err != nil {
		return err
	}

	p, err := s.Profiles.Get(r.Context(), role, sess.UID)
	if err != nil {
		return err
	}
	s.presignPhoto(r.Context(), p)
	utils.RespondSuccess(w, http.StatusOK, "", p)
	return nil
}

// UpdateProfile validates and merges the supplied fields into the caller's profile.
func (s *Server) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Update Profile API]")

	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	role, err := pathRole(r, sess)
	if err != nil {
		return err
	}

	raw, err := decodeRaw(r)
	if err != nil {
		return err
	}
	patch, fieldErrs := validation.ValidateProfile(raw)
	if len(fieldErrs) > 0 {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Validation failed: %v", fieldErrs))
		return apperrors.Validation("Invalid form data. Please check your inputs.", fieldErrs)
	}

	if err := s.reconcileUnit(r.Context(), role, sess.UID, &patch); err != nil {
		return err
	}
	if _, err := s.Profiles.Upsert(r.Context(), role, sess.UID, patch); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to save profile: %v", err))
		return err
	}

	p, err := s.Profiles.Get(r.Context(), role, sess.UID)
	if err != nil {
		return err
	}
	s.presignPhoto(r.Context(), p)
	utils.AddToLogMessage(&logMessageBuilder, "Profile updated")
	utils.RespondSuccess(w, http.StatusOK, "Profile updated successfully.", p)
	return nil
}

// reconcileUnit keeps the stored measurement set in a single unit. When patch switches units, the
// stored set is converted as a whole and patch's own measurements are laid over it.
func (s *Server) reconcileUnit(ctx context.Context, role models.Role, uid string, patch *models.ProfilePatch) error {
	if patch.MeasurementUnit == nil {
		return nil
	}
	current, err := s.Profiles.Get(ctx, role, uid)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	from := current.MeasurementUnit
	if from == "" {
		from = measurement.Centimeter
	}
	if from == *patch.MeasurementUnit || len(current.Measurements) == 0 {
		return nil
	}

	converted, err := measurement.Convert(current.Measurements, from, *patch.MeasurementUnit)
	if err != nil {
		return apperrors.Validation("Invalid measurement unit.", nil)
	}
	for name, v := range patch.Measurements {
		converted[name] = v
	}
	patch.Measurements = converted
	return nil
}

// UploadPhoto stores a profile photo and records its object key as photoURL.
func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Upload Photo API]")

	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	role, err := pathRole(r, sess)
	if err != nil {
		return err
	}
	if s.Photos == nil {
		return apperrors.NotFound("Photo uploads are not configured.")
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+1024)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to parse form: %v", err))
		return apperrors.Validation("File too large or invalid form data.", nil)
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		return apperrors.Validation("Photo is required.", apperrors.FieldErrors{"photo": {"Photo is required."}})
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return apperrors.Validation("Photo must be an image.", apperrors.FieldErrors{"photo": {"Photo must be an image."}})
	}

	objectKey := fmt.Sprintf("profile_photos/%s/%s%s", role, uuid.NewString(), strings.ToLower(filepath.Ext(header.Filename)))
	key, err := s.Photos.Upload(r.Context(), file, objectKey, contentType)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Upload failed: %v", err))
		return apperrors.Persistence("Failed to upload photo.", err)
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Uploaded %s", key))

	if _, err := s.Profiles.Upsert(r.Context(), role, sess.UID, models.ProfilePatch{PhotoURL: &key}); err != nil {
		return err
	}

	url, err := s.Photos.PresignedURL(r.Context(), key)
	if err != nil {
		s.Log.Warn("failed to presign photo", zap.String("key", key), zap.Error(err))
		url = ""
	}
	utils.RespondSuccess(w, http.StatusOK, "Photo uploaded successfully.", map[string]string{
		"photoKey": key,
		"photoURL": url,
	})
	return nil
}

// Dashboard returns the profile summary of a user who finished onboarding. Users still onboarding
// get a 409 pointing at the onboarding route.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	role, err := pathRole(r, sess)
	if err != nil {
		return err
	}

	p, err := s.Profiles.Get(r.Context(), role, sess.UID)
	if err != nil {
		return err
	}
	if !p.OnboardingCompleted {
		utils.RespondJSON(w, http.StatusConflict, utils.Response{
			Success: false,
			Message: "Please complete onboarding first.",
			Data:    session.Decision{Redirect: models.OnboardingPath},
		})
		return nil
	}

	s.presignPhoto(r.Context(), p)
	utils.RespondSuccess(w, http.StatusOK, "", p)
	return nil
}

// presignPhoto swaps a stored object key for a signed URL. External URLs, such as Google avatars,
// are left alone.
func (s *Server) presignPhoto(ctx context.Context, p *models.UserProfile) {
	if s.Photos == nil || p.PhotoURL == "" || strings.HasPrefix(p.PhotoURL, "http") {
		return
	}
	url, err := s.Photos.PresignedURL(ctx, p.PhotoURL)
	if err != nil {
		s.Log.Warn("failed to presign photo", zap.String("key", p.PhotoURL), zap.Error(err))
		return
	}
	p.PhotoURL = url
}
