package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/measurement"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/store"
	"go.uber.org/zap"
)

const saveFailedMessage = "We couldn't save your profile. Please try again."

// Store is the document storage the gateway writes through.
type Store interface {
	Apply(ctx context.Context, collection, uid string, u store.Update) (bool, error)
	Load(ctx context.Context, collection, uid string) (*models.UserProfile, error)
}

// Result describes a successful write.
type Result struct {
	Created bool
}

// Gateway merges partial profile updates into the role's collection.
type Gateway struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func NewGateway(s Store, log *zap.Logger) *Gateway {
	return &Gateway{store: s, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// Upsert merge-writes patch into the profile identified by uid. Fields absent from patch are left
// untouched. When all five address parts are in patch a formatted address is written too.
func (g *Gateway) Upsert(ctx context.Context, role models.Role, uid string, patch models.ProfilePatch) (Result, error) {
	if uid == "" {
		return Result{}, apperrors.ErrAuthenticationRequired
	}

	set := patchFields(patch)
	if address, ok := DeriveAddress(patch); ok {
		set["address"] = address
	}
	update := store.Update{
		Set:         set,
		SetOnInsert: g.insertDefaults(role, set),
		CurrentDate: []string{"updatedAt"},
	}

	created, err := g.store.Apply(ctx, role.Collection(), uid, update)
	if err != nil {
		g.log.Error("profile upsert failed",
			zap.String("uid", uid), zap.String("role", string(role)), zap.Error(err))
		return Result{}, apperrors.Persistence(saveFailedMessage, err)
	}
	return Result{Created: created}, nil
}

// CreateStub records the identity provider's view of a user on sign-in. Existing profile data is
// kept; a new profile starts with onboarding incomplete.
func (g *Gateway) CreateStub(ctx context.Context, role models.Role, user models.AuthUser) (Result, error) {
	patch := models.ProfilePatch{}
	for _, f := range []struct {
		dst **string
		v   string
	}{
		{&patch.Email, user.Email},
		{&patch.DisplayName, user.DisplayName},
		{&patch.PhotoURL, user.PhotoURL},
		{&patch.PhoneNumber, user.PhoneNumber},
	} {
		if f.v != "" {
			v := f.v
			*f.dst = &v
		}
	}
	return g.Upsert(ctx, role, user.UID, patch)
}

// Get loads the profile stored for uid.
func (g *Gateway) Get(ctx context.Context, role models.Role, uid string) (*models.UserProfile, error) {
	if uid == "" {
		return nil, apperrors.ErrAuthenticationRequired
	}
	p, err := g.store.Load(ctx, role.Collection(), uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NotFound("Profile not found.")
	}
	if err != nil {
		g.log.Error("profile load failed",
			zap.String("uid", uid), zap.String("role", string(role)), zap.Error(err))
		return nil, apperrors.Persistence("We couldn't load your profile. Please try again.", err)
	}
	if p.Role == "" {
		p.Role = role
	}
	return p, nil
}

// Exists reports whether a profile is stored for uid in role's collection.
func (g *Gateway) Exists(ctx context.Context, role models.Role, uid string) (*models.UserProfile, bool, error) {
	p, err := g.Get(ctx, role, uid)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (g *Gateway) insertDefaults(role models.Role, set map[string]any) map[string]any {
	defaults := map[string]any{
		"createdAt":           g.now(),
		"onboardingCompleted": false,
		"role":                string(role),
	}
	for k := range defaults {
		if _, ok := set[k]; ok {
			delete(defaults, k)
		}
	}
	return defaults
}

// DeriveAddress formats the discrete address parts of patch. It reports false unless all five
// parts are present and non-blank.
func DeriveAddress(patch models.ProfilePatch) (string, bool) {
	parts := []*string{patch.House, patch.Street, patch.City, patch.State, patch.Zip}
	for _, p := range parts {
		if p == nil || strings.TrimSpace(*p) == "" {
			return "", false
		}
	}
	return fmt.Sprintf("%s, %s, %s, %s %s",
		*patch.House, *patch.Street, *patch.City, *patch.State, *patch.Zip), true
}

// patchFields flattens the non-nil fields of patch into storage paths. Measurements are written
// per key so that a partial set never erases the others.
func patchFields(p models.ProfilePatch) map[string]any {
	set := map[string]any{}
	str := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	str("email", p.Email)
	str("displayName", p.DisplayName)
	str("photoURL", p.PhotoURL)
	str("phoneNumber", p.PhoneNumber)
	str("fullName", p.FullName)
	str("address", p.Address)
	str("house", p.House)
	str("street", p.Street)
	str("city", p.City)
	str("state", p.State)
	str("zip", p.Zip)
	if p.Gender != nil {
		set["gender"] = string(*p.Gender)
	}
	if p.Age != nil {
		set["age"] = *p.Age
	}
	if p.Height != nil {
		set["height"] = *p.Height
	}
	if p.Weight != nil {
		set["weight"] = *p.Weight
	}
	if p.MeasurementUnit != nil {
		set["measurementUnit"] = string(*p.MeasurementUnit)
	}
	for _, n := range measurement.Names {
		if v, ok := p.Measurements[n]; ok {
			set["measurements."+string(n)] = v
		}
	}
	if p.OnboardingCompleted != nil {
		set["onboardingCompleted"] = *p.OnboardingCompleted
	}
	if p.OnboardingStep != nil {
		set["onboardingStep"] = *p.OnboardingStep
	}
	return set
}
