package onboarding

import (
	"context"
	"errors"
	"testing"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/events"
	"github.com/raushankrgupta/tailor-connect/events/eventstest"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/profile"
	"github.com/raushankrgupta/tailor-connect/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flowFixture struct {
	flow   *Flow
	mem    *store.Memory
	gw     *profile.Gateway
	events *eventstest.Recorder
}

func newFlowFixture(t *testing.T) flowFixture {
	t.Helper()
	mem := store.NewMemory()
	gw := profile.NewGateway(mem, zap.NewNop())
	rec := &eventstest.Recorder{}
	_, err := gw.CreateStub(context.Background(), models.RoleCustomer, models.AuthUser{UID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	return flowFixture{flow: NewFlow(gw, rec, zap.NewNop()), mem: mem, gw: gw, events: rec}
}

func TestFlowIncrementalSave(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(t)

	view, err := fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepIdentity, identityFields())
	require.NoError(t, err)
	assert.Equal(t, int(StepPhysical), view.Step)

	// step 1 data is stored before the user finishes
	p, err := fx.gw.Get(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", p.FullName)
	assert.Equal(t, int(StepPhysical), p.OnboardingStep)
	assert.False(t, p.OnboardingCompleted)

	// resuming picks up the checkpoint
	view, err = fx.flow.Current(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	assert.Equal(t, int(StepPhysical), view.Step)
	assert.Equal(t, "John Doe", *view.Draft.FullName)
}

func TestFlowCompletesAndPublishes(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(t)

	_, err := fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepIdentity, identityFields())
	require.NoError(t, err)
	_, err = fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepPhysical, physicalFields())
	require.NoError(t, err)
	view, err := fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepMeasurements, measurementFields())
	require.NoError(t, err)

	assert.True(t, view.Completed)
	assert.Equal(t, "/customer/dashboard", view.Redirect)

	p, err := fx.gw.Get(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	assert.True(t, p.OnboardingCompleted)
	assert.True(t, p.Measurements.Complete())
	assert.Equal(t, 34, p.Age)

	evs := fx.events.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, events.SubjectOnboardingCompleted, evs[0].Subject)
	assert.Equal(t, "u1", evs[0].UID)

	_, err = fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepIdentity, identityFields())
	assert.True(t, apperrors.Is(err, apperrors.KindStale))
}

func TestFlowValidationFailure(t *testing.T) {
	fx := newFlowFixture(t)
	view, err := fx.flow.Submit(context.Background(), models.RoleCustomer, "u1", StepIdentity,
		map[string]any{"fullName": "Al"})

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, int(StepIdentity), view.Step)
	assert.Contains(t, view.Errors, "fullName")
	assert.Contains(t, view.Errors, "address")
}

func TestFlowSaveFailureDoesNotAdvance(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(t)
	fx.mem.Fail = errors.New("unavailable")

	view, err := fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepIdentity, identityFields())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindPersistence))
	assert.Equal(t, int(StepIdentity), view.Step)
	assert.NotEmpty(t, view.SaveError)
	assert.Equal(t, "John Doe", *view.Draft.FullName)

	fx.mem.Fail = nil
	view, err = fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepIdentity, identityFields())
	require.NoError(t, err)
	assert.Equal(t, int(StepPhysical), view.Step)
}

func TestFlowBackCheckpoints(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(t)

	_, err := fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepIdentity, identityFields())
	require.NoError(t, err)

	view, err := fx.flow.Back(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	assert.Equal(t, int(StepIdentity), view.Step)

	view, err = fx.flow.Current(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	assert.Equal(t, int(StepIdentity), view.Step)

	_, err = fx.flow.Submit(ctx, models.RoleCustomer, "u1", StepPhysical, physicalFields())
	assert.True(t, apperrors.Is(err, apperrors.KindStale))
}

func TestFlowRequiresIdentity(t *testing.T) {
	fx := newFlowFixture(t)
	_, err := fx.flow.Submit(context.Background(), models.RoleCustomer, "", StepIdentity, identityFields())
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
}
