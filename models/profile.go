package models

import (
	"fmt"
	"time"

	"github.com/raushankrgupta/tailor-connect/measurement"
)

// Role classifies an identity and selects its collection and dashboard.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleTailor   Role = "tailor"
)

// ParseRole validates a role path segment.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleTailor:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Collection is the document collection holding profiles of this role.
func (r Role) Collection() string {
	if r == RoleTailor {
		return "tailors"
	}
	return "customers"
}

// DashboardPath is the landing route once onboarding is complete.
func (r Role) DashboardPath() string {
	return "/" + string(r) + "/dashboard"
}

// LoginPath is the role's sign-in route.
func (r Role) LoginPath() string {
	return "/" + string(r) + "/login"
}

const OnboardingPath = "/onboarding"

type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// UserProfile is the one canonical record for customers and tailors.
type UserProfile struct {
	UID         string `bson:"_id" json:"uid"`
	Email       string `bson:"email,omitempty" json:"email,omitempty"`
	DisplayName string `bson:"displayName,omitempty" json:"displayName,omitempty"`
	PhotoURL    string `bson:"photoURL,omitempty" json:"photoURL,omitempty"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phoneNumber,omitempty"`

	FullName string `bson:"fullName,omitempty" json:"fullName,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
	House    string `bson:"house,omitempty" json:"house,omitempty"`
	Street   string `bson:"street,omitempty" json:"street,omitempty"`
	City     string `bson:"city,omitempty" json:"city,omitempty"`
	State    string `bson:"state,omitempty" json:"state,omitempty"`
	Zip      string `bson:"zip,omitempty" json:"zip,omitempty"`

	Gender Gender  `bson:"gender,omitempty" json:"gender,omitempty"`
	Age    int     `bson:"age,omitempty" json:"age,omitempty"`
	Height float64 `bson:"height,omitempty" json:"height,omitempty"` // in cm
	Weight float64 `bson:"weight,omitempty" json:"weight,omitempty"` // in kg

	Measurements    measurement.Set  `bson:"measurements,omitempty" json:"measurements,omitempty"`
	MeasurementUnit measurement.Unit `bson:"measurementUnit,omitempty" json:"measurementUnit,omitempty"`

	OnboardingCompleted bool      `bson:"onboardingCompleted" json:"onboardingCompleted"`
	OnboardingStep      int       `bson:"onboardingStep,omitempty" json:"onboardingStep,omitempty"`
	Role                Role      `bson:"role" json:"role"`
	CreatedAt           time.Time `bson:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt           time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// ProfilePatch is a partial profile: only non-nil fields are written.
type ProfilePatch struct {
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
	PhotoURL    *string `json:"photoURL,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`

	FullName *string `json:"fullName,omitempty"`
	Address  *string `json:"address,omitempty"`
	House    *string `json:"house,omitempty"`
	Street   *string `json:"street,omitempty"`
	City     *string `json:"city,omitempty"`
	State    *string `json:"state,omitempty"`
	Zip      *string `json:"zip,omitempty"`

	Gender *Gender  `json:"gender,omitempty"`
	Age    *int     `json:"age,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Weight *float64 `json:"weight,omitempty"`

	Measurements    measurement.Set   `json:"measurements,omitempty"`
	MeasurementUnit *measurement.Unit `json:"measurementUnit,omitempty"`

	OnboardingCompleted *bool `json:"onboardingCompleted,omitempty"`
	OnboardingStep      *int  `json:"onboardingStep,omitempty"`
}

// Merge overlays the non-nil fields of other onto p and returns the result.
func (p ProfilePatch) Merge(other ProfilePatch) ProfilePatch {
	out := p
	overlay := func(dst **string, src *string) {
		if src != nil {
			*dst = src
		}
	}
	overlay(&out.Email, other.Email)
	overlay(&out.DisplayName, other.DisplayName)
	overlay(&out.PhotoURL, other.PhotoURL)
	overlay(&out.PhoneNumber, other.PhoneNumber)
	overlay(&out.FullName, other.FullName)
	overlay(&out.Address, other.Address)
	overlay(&out.House, other.House)
	overlay(&out.Street, other.Street)
	overlay(&out.City, other.City)
	overlay(&out.State, other.State)
	overlay(&out.Zip, other.Zip)
	if other.Gender != nil {
		out.Gender = other.Gender
	}
	if other.Age != nil {
		out.Age = other.Age
	}
	if other.Height != nil {
		out.Height = other.Height
	}
	if other.Weight != nil {
		out.Weight = other.Weight
	}
	if other.MeasurementUnit != nil {
		out.MeasurementUnit = other.MeasurementUnit
	}
	if len(other.Measurements) > 0 {
		merged := make(measurement.Set, len(p.Measurements)+len(other.Measurements))
		for k, v := range p.Measurements {
			merged[k] = v
		}
		for k, v := range other.Measurements {
			merged[k] = v
		}
		out.Measurements = merged
	}
	if other.OnboardingCompleted != nil {
		out.OnboardingCompleted = other.OnboardingCompleted
	}
	if other.OnboardingStep != nil {
		out.OnboardingStep = other.OnboardingStep
	}
	return out
}

// PatchFromProfile projects a stored profile into a patch, so that onboarding can resume
// from what is already saved.
func PatchFromProfile(p *UserProfile) ProfilePatch {
	var out ProfilePatch
	if p == nil {
		return out
	}
	str := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	out.Email = str(p.Email)
	out.DisplayName = str(p.DisplayName)
	out.PhotoURL = str(p.PhotoURL)
	out.PhoneNumber = str(p.PhoneNumber)
	out.FullName = str(p.FullName)
	out.Address = str(p.Address)
	out.House = str(p.House)
	out.Street = str(p.Street)
	out.City = str(p.City)
	out.State = str(p.State)
	out.Zip = str(p.Zip)
	if p.Gender != "" {
		g := p.Gender
		out.Gender = &g
	}
	if p.Age > 0 {
		a := p.Age
		out.Age = &a
	}
	if p.Height > 0 {
		h := p.Height
		out.Height = &h
	}
	if p.Weight > 0 {
		w := p.Weight
		out.Weight = &w
	}
	if len(p.Measurements) > 0 {
		out.Measurements = p.Measurements.Clone()
	}
	if p.MeasurementUnit != "" {
		u := p.MeasurementUnit
		out.MeasurementUnit = &u
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
