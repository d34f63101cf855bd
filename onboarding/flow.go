package onboarding

import (
	"context"
	"time"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/events"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/profile"
	"go.uber.org/zap"
)

// Profiles is the part of the persistence gateway onboarding needs.
type Profiles interface {
	Get(ctx context.Context, role models.Role, uid string) (*models.UserProfile, error)
	Upsert(ctx context.Context, role models.Role, uid string, patch models.ProfilePatch) (profile.Result, error)
}

// View is what a client renders for the current onboarding position.
type View struct {
	Role       models.Role           `json:"role"`
	Step       int                   `json:"step"`
	StepName   string                `json:"stepName"`
	TotalSteps int                   `json:"totalSteps"`
	Fields     []string              `json:"fields,omitempty"`
	Completed  bool                  `json:"completed"`
	Draft      models.ProfilePatch   `json:"draft"`
	Errors     apperrors.FieldErrors `json:"errors,omitempty"`
	SaveError  string                `json:"saveError,omitempty"`
	Redirect   string                `json:"redirect,omitempty"`
}

// Flow drives the onboarding reducer against stored profiles. Each call rebuilds the state from
// the stored checkpoint, so concurrent requests for one user see the same step.
type Flow struct {
	profiles Profiles
	events   events.Publisher
	log      *zap.Logger
}

func NewFlow(profiles Profiles, publisher events.Publisher, log *zap.Logger) *Flow {
	return &Flow{profiles: profiles, events: publisher, log: log}
}

// Load rebuilds the orchestrator state of uid from its stored profile.
func (f *Flow) Load(ctx context.Context, role models.Role, uid string) (State, error) {
	if uid == "" {
		return State{}, apperrors.ErrAuthenticationRequired
	}
	st := NewState(role)
	p, err := f.profiles.Get(ctx, role, uid)
	if apperrors.Is(err, apperrors.KindNotFound) {
		return st, nil
	}
	if err != nil {
		return State{}, err
	}

	st.Draft = models.PatchFromProfile(p)
	switch {
	case p.OnboardingCompleted:
		st.Step = StepComplete
	case Step(p.OnboardingStep) > st.Last():
		st.Step = st.Last()
	case p.OnboardingStep > int(StepIdentity):
		st.Step = Step(p.OnboardingStep)
	}
	return st, nil
}

// Current returns the view of uid's onboarding position.
func (f *Flow) Current(ctx context.Context, role models.Role, uid string) (View, error) {
	st, err := f.Load(ctx, role, uid)
	if err != nil {
		return View{}, err
	}
	return ViewOf(st), nil
}

// Submit validates and saves the fields of step. A validation failure returns the view with field
// errors and a Validation error; a save failure keeps the user on the step.
func (f *Flow) Submit(ctx context.Context, role models.Role, uid string, step Step, raw map[string]any) (View, error) {
	st, err := f.Load(ctx, role, uid)
	if err != nil {
		return View{}, err
	}

	st, eff := Transition(st, Submit{Step: step, Raw: raw})
	switch eff.Kind {
	case EffectStale:
		return ViewOf(st), apperrors.Stale("This onboarding step is no longer current.")
	case EffectNone:
		return ViewOf(st), apperrors.Validation("Invalid form data. Please check your inputs.", st.Errors)
	}

	if _, err := f.profiles.Upsert(ctx, role, uid, eff.Patch); err != nil {
		st, _ = Transition(st, SaveFailed{Step: eff.Step, Err: err})
		f.log.Warn("onboarding save failed",
			zap.String("uid", uid), zap.Stringer("step", eff.Step), zap.Error(err))
		return ViewOf(st), err
	}

	st, eff = Transition(st, Saved{Step: eff.Step})
	view := ViewOf(st)
	if eff.Kind == EffectNavigate {
		view.Redirect = eff.Path
		f.publishCompleted(ctx, role, uid)
	}
	return view, nil
}

// Back moves uid one step backwards and checkpoints the new position.
func (f *Flow) Back(ctx context.Context, role models.Role, uid string) (View, error) {
	st, err := f.Load(ctx, role, uid)
	if err != nil {
		return View{}, err
	}
	before := st.Step
	st, eff := Transition(st, Back{})
	if eff.Kind == EffectStale {
		return ViewOf(st), apperrors.Stale("Onboarding is already complete.")
	}
	if st.Step != before {
		if _, err := f.profiles.Upsert(ctx, role, uid, models.ProfilePatch{OnboardingStep: models.Ptr(int(st.Step))}); err != nil {
			return ViewOf(st), err
		}
	}
	return ViewOf(st), nil
}

func (f *Flow) publishCompleted(ctx context.Context, role models.Role, uid string) {
	err := f.events.Publish(ctx, events.Envelope{
		Subject:    events.SubjectOnboardingCompleted,
		UID:        uid,
		Role:       string(role),
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		f.log.Warn("failed to publish onboarding completion", zap.String("uid", uid), zap.Error(err))
	}
}

// ViewOf renders st.
func ViewOf(st State) View {
	v := View{
		Role:       st.Role,
		Step:       int(st.Step),
		StepName:   st.Step.String(),
		TotalSteps: len(StepsFor(st.Role)),
		Completed:  st.Completed(),
		Draft:      st.Draft,
		Errors:     st.Errors,
		SaveError:  st.SaveError,
	}
	if st.Completed() {
		v.Redirect = st.Role.DashboardPath()
	} else {
		v.Fields = Fields(st.Step)
	}
	return v
}
