package onboarding

import (
	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/validation"
)

// Step is a position in the onboarding sequence. Steps are numbered from 1.
type Step int

const (
	StepIdentity     Step = 1
	StepPhysical     Step = 2
	StepMeasurements Step = 3
	StepComplete     Step = 4
)

func (s Step) String() string {
	switch s {
	case StepIdentity:
		return "identity"
	case StepPhysical:
		return "physical_attributes"
	case StepMeasurements:
		return "measurements"
	case StepComplete:
		return "complete"
	}
	return "unknown"
}

// projection lists the profile fields a step owns. Required fields must be present to advance.
type projection struct {
	required []string
	optional []string
}

var projections = map[Step]projection{
	StepIdentity: {
		required: []string{validation.FieldFullName, validation.FieldAddress},
		optional: []string{
			validation.FieldHouse, validation.FieldStreet, validation.FieldCity,
			validation.FieldState, validation.FieldZip, validation.FieldPhoneNumber,
		},
	},
	StepPhysical: {
		required: []string{validation.FieldGender, validation.FieldAge, validation.FieldHeight, validation.FieldWeight},
	},
	StepMeasurements: {
		required: []string{validation.FieldMeasurementUnit, validation.FieldMeasurements},
	},
}

// StepsFor returns the form steps a role goes through before Complete.
func StepsFor(role models.Role) []Step {
	if role == models.RoleTailor {
		return []Step{StepIdentity}
	}
	return []Step{StepIdentity, StepPhysical, StepMeasurements}
}

// Fields returns every field owned by step.
func Fields(step Step) []string {
	p := projections[step]
	return append(append([]string{}, p.required...), p.optional...)
}

// State is the orchestrator state. Transition is its only writer.
type State struct {
	Role  models.Role
	Step  Step
	Draft models.ProfilePatch
	// Pending is the step whose save is in flight, or 0.
	Pending   Step
	Errors    apperrors.FieldErrors
	SaveError string
}

// Completed reports whether the terminal transition has happened.
func (s State) Completed() bool {
	return s.Step == StepComplete
}

// Last is the final form step for the state's role.
func (s State) Last() Step {
	steps := StepsFor(s.Role)
	return steps[len(steps)-1]
}

// NewState starts a role's onboarding at the first step.
func NewState(role models.Role) State {
	return State{Role: role, Step: StepIdentity}
}

// Event is an input to Transition.
type Event interface {
	event()
}

// Submit carries the raw form fields of a step.
type Submit struct {
	Step Step
	Raw  map[string]any
}

// Back navigates one step backwards without validation.
type Back struct{}

// Saved reports that the persist effect for Step succeeded.
type Saved struct {
	Step Step
}

// SaveFailed reports that the persist effect for Step failed.
type SaveFailed struct {
	Step Step
	Err  error
}

func (Submit) event()     {}
func (Back) event()       {}
func (Saved) event()      {}
func (SaveFailed) event() {}

// EffectKind names the side effect a transition asks its driver to perform.
type EffectKind int

const (
	EffectNone EffectKind = iota
	// EffectPersist asks for Patch to be written for Step.
	EffectPersist
	// EffectNavigate asks for a redirect to Path.
	EffectNavigate
	// EffectStale reports an event that no longer matches the state.
	EffectStale
)

type Effect struct {
	Kind  EffectKind
	Step  Step
	Patch models.ProfilePatch
	Path  string
}

// Transition applies e to s. It is pure: it neither performs I/O nor mutates s.
func Transition(s State, e Event) (State, Effect) {
	switch e := e.(type) {
	case Submit:
		return submit(s, e)
	case Back:
		if s.Completed() {
			return s, Effect{Kind: EffectStale}
		}
		s.Pending = 0
		s.Errors = nil
		s.SaveError = ""
		if s.Step > StepIdentity {
			s.Step--
		}
		return s, Effect{}
	case Saved:
		if s.Pending == 0 || e.Step != s.Pending {
			return s, Effect{}
		}
		s.Pending = 0
		s.SaveError = ""
		if e.Step == s.Last() {
			s.Step = StepComplete
			return s, Effect{Kind: EffectNavigate, Path: s.Role.DashboardPath()}
		}
		s.Step = e.Step + 1
		return s, Effect{}
	case SaveFailed:
		if s.Pending == 0 || e.Step != s.Pending {
			return s, Effect{}
		}
		s.Pending = 0
		s.SaveError = "We couldn't save your progress. Please try again."
		return s, Effect{}
	}
	return s, Effect{}
}

func submit(s State, e Submit) (State, Effect) {
	if s.Completed() || s.Pending != 0 || e.Step != s.Step {
		return s, Effect{Kind: EffectStale}
	}

	p := projections[s.Step]
	patch, errs := validation.ValidateComplete(e.Raw, p.required...)
	optional, optErrs := validation.ValidateProfile(e.Raw, p.optional...)
	for field, msgs := range optErrs {
		if errs == nil {
			errs = apperrors.FieldErrors{}
		}
		errs[field] = append(errs[field], msgs...)
	}
	if len(errs) > 0 {
		s.Errors = errs
		s.SaveError = ""
		return s, Effect{}
	}

	patch = patch.Merge(optional)
	next := s.Step + 1
	if s.Step == s.Last() {
		next = StepComplete
		patch.OnboardingCompleted = models.Ptr(true)
	}
	patch.OnboardingStep = models.Ptr(int(next))

	s.Draft = s.Draft.Merge(patch)
	s.Errors = nil
	s.SaveError = ""
	s.Pending = s.Step
	return s, Effect{Kind: EffectPersist, Step: s.Step, Patch: patch}
}
