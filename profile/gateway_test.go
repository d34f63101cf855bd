package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/raushankrgupta/tailor-connect/apperrors"
	"github.com/raushankrgupta/tailor-connect/measurement"
	"github.com/raushankrgupta/tailor-connect/models"
	"github.com/raushankrgupta/tailor-connect/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestGateway() (*Gateway, *store.Memory) {
	mem := store.NewMemory()
	return NewGateway(mem, zap.NewNop()), mem
}

func TestUpsertPreservesUntouchedFields(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGateway()

	res, err := g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{
		FullName: models.Ptr("A"),
		Age:      models.Ptr(30),
	})
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{Age: models.Ptr(31)})
	require.NoError(t, err)
	assert.False(t, res.Created)

	p, err := g.Get(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", p.FullName)
	assert.Equal(t, 31, p.Age)
	assert.False(t, p.OnboardingCompleted)
	assert.Equal(t, models.RoleCustomer, p.Role)
	assert.False(t, p.CreatedAt.IsZero())
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestUpsertDerivesAddressOnlyWhenComplete(t *testing.T) {
	ctx := context.Background()
	g, mem := newTestGateway()

	_, err := g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{Address: models.Ptr("Old Address 1")})
	require.NoError(t, err)

	_, err = g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{
		House:  models.Ptr("12"),
		Street: models.Ptr("MG Road"),
		City:   models.Ptr("Pune"),
	})
	require.NoError(t, err)

	doc, ok := mem.Document("customers", "u1")
	require.True(t, ok)
	assert.Equal(t, "Old Address 1", doc["address"])
	assert.Equal(t, "12", doc["house"])
	assert.Equal(t, "MG Road", doc["street"])
	assert.Equal(t, "Pune", doc["city"])
	assert.NotContains(t, doc, "state")

	_, err = g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{
		House:  models.Ptr("12"),
		Street: models.Ptr("MG Road"),
		City:   models.Ptr("Pune"),
		State:  models.Ptr("MH"),
		Zip:    models.Ptr("411001"),
	})
	require.NoError(t, err)
	doc, _ = mem.Document("customers", "u1")
	assert.Equal(t, "12, MG Road, Pune, MH 411001", doc["address"])
}

func TestUpsertMergesMeasurementsPerKey(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGateway()

	_, err := g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{Measurements: measurement.DefaultSet()})
	require.NoError(t, err)
	_, err = g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{
		Measurements: measurement.Set{measurement.Chest: 100},
	})
	require.NoError(t, err)

	p, err := g.Get(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	want := measurement.DefaultSet()
	want[measurement.Chest] = 100
	assert.Equal(t, want, p.Measurements)
}

func TestUpsertRequiresIdentity(t *testing.T) {
	g, mem := newTestGateway()
	_, err := g.Upsert(context.Background(), models.RoleCustomer, "", models.ProfilePatch{Age: models.Ptr(3)})
	assert.ErrorIs(t, err, apperrors.ErrAuthenticationRequired)
	_, ok := mem.Document("customers", "")
	assert.False(t, ok)
}

func TestUpsertSurfacesPersistenceFailure(t *testing.T) {
	g, mem := newTestGateway()
	mem.Fail = errors.New("permission denied")

	_, err := g.Upsert(context.Background(), models.RoleTailor, "t1", models.ProfilePatch{FullName: models.Ptr("Ravi")})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindPersistence))
	assert.ErrorIs(t, err, mem.Fail)
}

func TestGetNotFound(t *testing.T) {
	g, _ := newTestGateway()
	_, err := g.Get(context.Background(), models.RoleTailor, "missing")
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))

	_, ok, err := g.Exists(context.Background(), models.RoleTailor, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateStubKeepsOnboardingState(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGateway()

	_, err := g.CreateStub(ctx, models.RoleCustomer, models.AuthUser{UID: "u1", Email: "a@example.com"})
	require.NoError(t, err)
	_, err = g.Upsert(ctx, models.RoleCustomer, "u1", models.ProfilePatch{OnboardingCompleted: models.Ptr(true)})
	require.NoError(t, err)

	res, err := g.CreateStub(ctx, models.RoleCustomer, models.AuthUser{UID: "u1", DisplayName: "Asha"})
	require.NoError(t, err)
	assert.False(t, res.Created)

	p, err := g.Get(ctx, models.RoleCustomer, "u1")
	require.NoError(t, err)
	assert.True(t, p.OnboardingCompleted)
	assert.Equal(t, "a@example.com", p.Email)
	assert.Equal(t, "Asha", p.DisplayName)
}

func TestDeriveAddressRejectsBlankParts(t *testing.T) {
	_, ok := DeriveAddress(models.ProfilePatch{
		House: models.Ptr("1"), Street: models.Ptr("A"), City: models.Ptr("B"),
		State: models.Ptr(" "), Zip: models.Ptr("1"),
	})
	assert.False(t, ok)
}
