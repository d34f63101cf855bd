package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/measurement"
	"github.com/raushankrgupta/tailor-connect/models"
)

// Top level profile keys accepted from clients. Anything else in the payload is ignored.
const (
	FieldEmail           = "email"
	FieldDisplayName     = "displayName"
	FieldPhotoURL        = "photoURL"
	FieldPhoneNumber     = "phoneNumber"
	FieldFullName        = "fullName"
	FieldAddress         = "address"
	FieldHouse           = "house"
	FieldStreet          = "street"
	FieldCity            = "city"
	FieldState           = "state"
	FieldZip             = "zip"
	FieldGender          = "gender"
	FieldAge             = "age"
	FieldHeight          = "height"
	FieldWeight          = "weight"
	FieldMeasurementUnit = "measurementUnit"
	FieldMeasurements    = "measurements"
)

var stringFields = []string{
	FieldEmail, FieldDisplayName, FieldPhotoURL, FieldPhoneNumber,
	FieldFullName, FieldAddress, FieldHouse, FieldStreet, FieldCity, FieldState, FieldZip,
	FieldGender, FieldMeasurementUnit,
}

type measurementsInput struct {
	Shoulder *float64 `json:"Shoulder" validate:"omitnil,gte=1"`
	Chest    *float64 `json:"Chest" validate:"omitnil,gte=1"`
	Waist    *float64 `json:"Waist" validate:"omitnil,gte=1"`
	Hips     *float64 `json:"Hips" validate:"omitnil,gte=1"`
	Inseam   *float64 `json:"Inseam" validate:"omitnil,gte=1"`
	Sleeve   *float64 `json:"Sleeve" validate:"omitnil,gte=1"`
}

func (m *measurementsInput) slot(n measurement.Name) **float64 {
	switch n {
	case measurement.Shoulder:
		return &m.Shoulder
	case measurement.Chest:
		return &m.Chest
	case measurement.Waist:
		return &m.Waist
	case measurement.Hips:
		return &m.Hips
	case measurement.Inseam:
		return &m.Inseam
	default:
		return &m.Sleeve
	}
}

// profileInput is the coerced candidate record the struct rules run against.
type profileInput struct {
	Email       *string `json:"email" validate:"omitnil,email"`
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
	PhoneNumber *string `json:"phoneNumber"`

	FullName *string `json:"fullName" validate:"omitnil,min=3"`
	Address  *string `json:"address" validate:"omitnil,min=5"`
	House    *string `json:"house"`
	Street   *string `json:"street"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Zip      *string `json:"zip"`

	Gender *string  `json:"gender" validate:"omitnil,oneof=Male Female Other"`
	Age    *int     `json:"age" validate:"omitnil,gte=1"`
	Height *float64 `json:"height" validate:"omitnil,gte=1"`
	Weight *float64 `json:"weight" validate:"omitnil,gte=1"`

	MeasurementUnit *string            `json:"measurementUnit" validate:"omitnil,oneof=cm inch"`
	Measurements    *measurementsInput `json:"measurements"`
}

func (p *profileInput) stringSlot(field string) **string {
	switch field {
	case FieldEmail:
		return &p.Email
	case FieldDisplayName:
		return &p.DisplayName
	case FieldPhotoURL:
		return &p.PhotoURL
	case FieldPhoneNumber:
		return &p.PhoneNumber
	case FieldFullName:
		return &p.FullName
	case FieldAddress:
		return &p.Address
	case FieldHouse:
		return &p.House
	case FieldStreet:
		return &p.Street
	case FieldCity:
		return &p.City
	case FieldState:
		return &p.State
	case FieldZip:
		return &p.Zip
	case FieldGender:
		return &p.Gender
	case FieldMeasurementUnit:
		return &p.MeasurementUnit
	}
	return nil
}

var messages = map[string]string{
	FieldEmail:           "Please enter a valid email address.",
	FieldFullName:        "Full name must be at least 3 characters.",
	FieldAddress:         "Address must be at least 5 characters.",
	FieldGender:          "Please select a gender.",
	FieldAge:             "Age is required.",
	FieldHeight:          "Height is required.",
	FieldWeight:          "Weight is required.",
	FieldMeasurementUnit: "Please select a measurement unit.",

	"garmentType":      "Please select a garment type.",
	"designDetails":    "Please provide some design details.",
	"customerLocation": "Please enter your location.",
}

func messageFor(field string) string {
	if msg, ok := messages[field]; ok {
		return msg
	}
	if name, ok := strings.CutPrefix(field, FieldMeasurements+"."); ok {
		return name + " measurement is required."
	}
	return field + " is invalid."
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("garment", func(fl validator.FieldLevel) bool {
		return slices.Contains(models.GarmentTypes, fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidateProfile validates a candidate profile record. When fields are given only those top level
// keys are considered, which is how onboarding steps validate their projection of the profile.
// Keys absent from raw are not required.
func ValidateProfile(raw map[string]any, fields ...string) (models.ProfilePatch, apperrors.FieldErrors) {
	return validateProfile(raw, false, fields)
}

// ValidateComplete is ValidateProfile with every projected field required.
func ValidateComplete(raw map[string]any, fields ...string) (models.ProfilePatch, apperrors.FieldErrors) {
	return validateProfile(raw, true, fields)
}

func validateProfile(raw map[string]any, requireAll bool, fields []string) (models.ProfilePatch, apperrors.FieldErrors) {
	errs := apperrors.FieldErrors{}
	if len(fields) == 0 {
		fields = append(append([]string{}, stringFields...), FieldAge, FieldHeight, FieldWeight, FieldMeasurements)
	}

	var in profileInput
	for _, field := range fields {
		value, present := raw[field]
		if !present || value == nil {
			if requireAll {
				requireField(errs, field)
			}
			continue
		}
		switch field {
		case FieldAge:
			n, err := toNumber(value)
			if err != nil {
				errs.Add(field, "Age must be a number.")
				continue
			}
			if n != math.Trunc(n) {
				errs.Add(field, "Age must be a whole number.")
				continue
			}
			age := int(n)
			in.Age = &age
		case FieldHeight, FieldWeight:
			n, err := toNumber(value)
			if err != nil {
				errs.Add(field, fieldLabel(field)+" must be a number.")
				continue
			}
			if field == FieldHeight {
				in.Height = &n
			} else {
				in.Weight = &n
			}
		case FieldMeasurements:
			coerceMeasurements(&in, value, requireAll, errs)
		default:
			slot := in.stringSlot(field)
			if slot == nil {
				continue
			}
			s, ok := value.(string)
			if !ok {
				errs.Add(field, fieldLabel(field)+" must be text.")
				continue
			}
			s = normalizeString(field, s)
			*slot = &s
		}
	}

	if err := validate.Struct(&in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add("_", err.Error())
		}
		for _, fe := range verrs {
			path := fe.Namespace()
			if i := strings.IndexByte(path, '.'); i >= 0 {
				path = path[i+1:]
			}
			errs.Add(path, messageFor(path))
		}
	}

	if len(errs) > 0 {
		return models.ProfilePatch{}, errs
	}
	return in.patch(), nil
}

func requireField(errs apperrors.FieldErrors, field string) {
	switch field {
	case FieldMeasurements:
		for _, n := range measurement.Names {
			path := FieldMeasurements + "." + string(n)
			errs.Add(path, messageFor(path))
		}
	case FieldGender, FieldMeasurementUnit, FieldFullName, FieldAddress, FieldAge, FieldHeight, FieldWeight:
		errs.Add(field, messageFor(field))
	default:
		errs.Add(field, fieldLabel(field)+" is required.")
	}
}

func coerceMeasurements(in *profileInput, value any, requireAll bool, errs apperrors.FieldErrors) {
	m, ok := value.(map[string]any)
	if !ok {
		errs.Add(FieldMeasurements, "Measurements must be an object.")
		return
	}
	in.Measurements = &measurementsInput{}
	seen := map[measurement.Name]bool{}
	for key, v := range m {
		name, ok := measurement.ParseName(key)
		if !ok {
			errs.Add(FieldMeasurements+"."+key, "Unknown measurement "+key+".")
			continue
		}
		n, err := toNumber(v)
		if err != nil {
			errs.Add(FieldMeasurements+"."+string(name), string(name)+" must be a number.")
			continue
		}
		seen[name] = true
		*in.Measurements.slot(name) = &n
	}
	if requireAll {
		for _, n := range measurement.Names {
			if !seen[n] && len(errs[FieldMeasurements+"."+string(n)]) == 0 {
				path := FieldMeasurements + "." + string(n)
				errs.Add(path, messageFor(path))
			}
		}
	}
}

func (p *profileInput) patch() models.ProfilePatch {
	out := models.ProfilePatch{
		Email:       p.Email,
		DisplayName: p.DisplayName,
		PhotoURL:    p.PhotoURL,
		PhoneNumber: p.PhoneNumber,
		FullName:    p.FullName,
		Address:     p.Address,
		House:       p.House,
		Street:      p.Street,
		City:        p.City,
		State:       p.State,
		Zip:         p.Zip,
		Age:         p.Age,
		Height:      p.Height,
		Weight:      p.Weight,
	}
	if p.Gender != nil {
		g := models.Gender(*p.Gender)
		out.Gender = &g
	}
	if p.MeasurementUnit != nil {
		u := measurement.Unit(*p.MeasurementUnit)
		out.MeasurementUnit = &u
	}
	if p.Measurements != nil {
		set := measurement.Set{}
		for _, n := range measurement.Names {
			if v := *p.Measurements.slot(n); v != nil {
				set[n] = *v
			}
		}
		if len(set) > 0 {
			out.Measurements = set
		}
	}
	return out
}

// ValidateRecommendation checks a recommendation request before it is dispatched.
func ValidateRecommendation(raw map[string]any) (models.RecommendationRequest, apperrors.FieldErrors) {
	errs := apperrors.FieldErrors{}
	var req models.RecommendationRequest
	for field, dst := range map[string]*string{
		"garmentType":      &req.GarmentType,
		"designDetails":    &req.DesignDetails,
		"customerLocation": &req.CustomerLocation,
	} {
		switch v := raw[field].(type) {
		case nil:
		case string:
			*dst = strings.TrimSpace(v)
		default:
			errs.Add(field, messageFor(field))
		}
	}

	if err := validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			errs.Add("_", err.Error())
		}
		for _, fe := range verrs {
			if len(errs[fe.Field()]) == 0 {
				errs.Add(fe.Field(), messageFor(fe.Field()))
			}
		}
	}
	if len(errs) > 0 {
		return models.RecommendationRequest{}, errs
	}
	return req, nil
}

// normalizeString trims input and maps enum aliases onto their canonical spelling.
func normalizeString(field, s string) string {
	s = strings.TrimSpace(s)
	switch field {
	case FieldGender:
		for _, g := range []models.Gender{models.GenderMale, models.GenderFemale, models.GenderOther} {
			if strings.EqualFold(s, string(g)) {
				return string(g)
			}
		}
	case FieldMeasurementUnit:
		if u, err := measurement.ParseUnit(s); err == nil {
			return string(u)
		}
	}
	return s
}

// toNumber coerces JSON numbers and numeric strings. NaN and infinities are rejected.
func toNumber(v any) (float64, error) {
	f, err := coerceNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %v", v)
	}
	return f, nil
}

func coerceNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func fieldLabel(field string) string {
	if field == "" {
		return field
	}
	return strings.ToUpper(field[:1]) + field[1:]
}
