package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/measurement"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/ruler"
	"github.com/raushankrgupta/tailor-connect/session"
	"github.com/raushankrgupta/tailor-connect/utils"
	"github.com/raushankrgupta/tailor-connect/validation"
)

// MeasurementsView is the measurement set with the entry range of its unit.
type MeasurementsView struct {
	Unit         measurement.Unit  `json:"unit"`
	Measurements measurement.Set   `json:"measurements"`
	Range        measurement.Range `json:"range"`
	Saved        bool              `json:"saved"`
}

// UnitRequest selects the unit the whole set is converted to.
type UnitRequest struct {
	Unit string `json:"unit" validate:"required"`
}

func measurementsView(p *models.UserProfile) (MeasurementsView, error) {
	v := MeasurementsView{Unit: measurement.Centimeter, Measurements: measurement.DefaultSet()}
	if p != nil && p.MeasurementUnit != "" {
		v.Unit = p.MeasurementUnit
	}
	if p != nil && len(p.Measurements) > 0 {
		v.Measurements = p.Measurements
		v.Saved = true
	} else if v.Unit != measurement.Centimeter {
		defaults, err := measurement.Convert(v.Measurements, measurement.Centimeter, v.Unit)
		if err != nil {
			return MeasurementsView{}, err
		}
		v.Measurements = defaults
	}
	rng, err := measurement.EntryRange(v.Unit)
	if err != nil {
		return MeasurementsView{}, err
	}
	v.Range = rng
	return v, nil
}

// GetMeasurements returns the caller's measurements, or the defaults when none are saved.
func (s *Server) GetMeasurements(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	p, err := s.Profiles.Get(r.Context(), models.RoleCustomer, sess.UID)
	if err != nil && !apperrors.Is(err, apperrors.KindNotFound) {
		return err
	}
	view, err := measurementsView(p)
	if err != nil {
		return err
	}
	utils.RespondSuccess(w, http.StatusOK, "", view)
	return nil
}

// PutMeasurements replaces the whole set. Values are snapped and clamped the way the ruler
// commits them.
func (s *Server) PutMeasurements(w http.ResponseWriter, r *http.Request) error {
	var logMessageBuilder strings.Builder
	defer utils.FlushLogMessage(s.Log, &logMessageBuilder)
	utils.AddToLogMessage(&logMessageBuilder, "[Put Measurements API]")

	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	raw, err := decodeRaw(r)
	if err != nil {
		return err
	}
	patch, fieldErrs := validation.ValidateComplete(raw, validation.FieldMeasurementUnit, validation.FieldMeasurements)
	if len(fieldErrs) > 0 {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Validation failed: %v", fieldErrs))
		return apperrors.Validation("Invalid form data. Please check your inputs.", fieldErrs)
	}

	normalized, err := normalizeSet(*patch.MeasurementUnit, patch.Measurements)
	if err != nil {
		return err
	}
	patch.Measurements = normalized

	if _, err := s.Profiles.Upsert(r.Context(), models.RoleCustomer, sess.UID, patch); err != nil {
		return err
	}
	view, err := measurementsView(&models.UserProfile{MeasurementUnit: *patch.MeasurementUnit, Measurements: normalized})
	if err != nil {
		return err
	}
	utils.RespondSuccess(w, http.StatusOK, "Measurements saved.", view)
	return nil
}

// PutMeasurementUnit converts the stored set to another unit.
func (s *Server) PutMeasurementUnit(w http.ResponseWriter, r *http.Request) error {
	sess, err := session.Require(r.Context())
	if err != nil {
		return err
	}
	var req UnitRequest
	if err := s.decode(r, &req); err != nil {
		return err
	}
	to, err := measurement.ParseUnit(req.Unit)
	if err != nil {
		return apperrors.Validation("Invalid form data. Please check your inputs.",
			apperrors.FieldErrors{"unit": {"Please select a valid unit."}})
	}

	p, err := s.Profiles.Get(r.Context(), models.RoleCustomer, sess.UID)
	if err != nil && !apperrors.Is(err, apperrors.KindNotFound) {
		return err
	}
	current, err := measurementsView(p)
	if err != nil {
		return err
	}

	converted, err := measurement.Convert(current.Measurements, current.Unit, to)
	if err != nil {
		return err
	}
	patch := models.ProfilePatch{MeasurementUnit: &to}
	if current.Saved {
		patch.Measurements = converted
	}
	if _, err := s.Profiles.Upsert(r.Context(), models.RoleCustomer, sess.UID, patch); err != nil {
		return err
	}

	view, err := measurementsView(&models.UserProfile{MeasurementUnit: to, Measurements: converted})
	if err != nil {
		return err
	}
	view.Saved = current.Saved
	utils.RespondSuccess(w, http.StatusOK, "Measurement unit updated.", view)
	return nil
}

func normalizeSet(unit measurement.Unit, set measurement.Set) (measurement.Set, error) {
	rng, err := measurement.EntryRange(unit)
	if err != nil {
		return nil, err
	}
	rl, err := ruler.New(rng.Min, rng.Max, rng.Min)
	if err != nil {
		return nil, err
	}
	out := make(measurement.Set, len(set))
	for name, v := range set {
		out[name] = rl.Normalize(v)
	}
	return out, nil
}
