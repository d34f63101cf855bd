package session

import (
	"context"
	"strings"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/models"
)

// Profiles looks a uid up in one role's collection.
type Profiles interface {
	Exists(ctx context.Context, role models.Role, uid string) (*models.UserProfile, bool, error)
}

// Status is what routing needs to know about an identity.
type Status struct {
	Exists              bool        `json:"exists"`
	Role                models.Role `json:"role,omitempty"`
	OnboardingCompleted bool        `json:"onboardingCompleted"`
}

type Resolver struct {
	profiles Profiles
}

func NewResolver(profiles Profiles) *Resolver {
	return &Resolver{profiles: profiles}
}

// Resolve finds the role record of uid, checking customers before tailors.
func (r *Resolver) Resolve(ctx context.Context, uid string) (Status, error) {
	if uid == "" {
		return Status{}, apperrors.ErrAuthenticationRequired
	}
	for _, role := range []models.Role{models.RoleCustomer, models.RoleTailor} {
		p, ok, err := r.profiles.Exists(ctx, role, uid)
		if err != nil {
			return Status{}, err
		}
		if ok {
			return Status{Exists: true, Role: role, OnboardingCompleted: p.OnboardingCompleted}, nil
		}
	}
	return Status{}, nil
}

// Decision is the routing outcome for a resolved status.
type Decision struct {
	// Redirect is empty when the current route is already correct.
	Redirect string `json:"redirect,omitempty"`
	// AllowCreate is set when no profile exists yet and one may be created.
	AllowCreate bool `json:"allowCreate"`
}

// Route decides where a user with status belongs. It never redirects to the route already shown.
func Route(status Status, current string) Decision {
	if !status.Exists {
		return Decision{AllowCreate: true}
	}
	target := status.Role.DashboardPath()
	if !status.OnboardingCompleted {
		target = models.OnboardingPath
	}
	if strings.TrimSuffix(current, "/") == target {
		return Decision{}
	}
	return Decision{Redirect: target}
}
