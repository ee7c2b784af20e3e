package masterdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/workshop-scheduler/internal/clock"
	"github.com/hackgods/workshop-scheduler/internal/db/dbtest"
	"github.com/hackgods/workshop-scheduler/internal/validation"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(dbtest.Open(t), clock.Fixed(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)), nil)
}

func strPtr(s string) *string { return &s }

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"vehicle-types":       KindVehicleType,
		"vehicle_type":        KindVehicleType,
		"customers":           KindCustomer,
		"business-categories": KindBusinessCategory,
		"business_category":   KindBusinessCategory,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseKind("planets")
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
}

func TestDefaultBusinessCategoriesSeeded(t *testing.T) {
	svc := newTestService(t)

	list, err := svc.List(context.Background(), KindBusinessCategory)
	require.NoError(t, err)

	names := make([]string, 0, len(list))
	for _, e := range list {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"repair", "inspection", "maintenance", "sales", "other"}, names)
}

func TestCreateUniquePerKind(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, KindVehicleType, Input{Name: strPtr(" Sedan ")})
	require.NoError(t, err)
	assert.Equal(t, "Sedan", e.Name)
	assert.Equal(t, KindVehicleType, e.Kind)

	_, err = svc.Create(ctx, KindVehicleType, Input{Name: strPtr("Sedan")})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = svc.Create(ctx, KindCustomer, Input{Name: strPtr("Sedan"), Detail: strPtr("555-0100")})
	assert.NoError(t, err, "names are unique per kind only")

	_, err = svc.Create(ctx, KindCustomer, Input{Name: strPtr("  ")})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
}

func TestUpdateAndSoftDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	e, err := svc.Create(ctx, KindCustomer, Input{Name: strPtr("Acme Co."), Detail: strPtr("555-0100")})
	require.NoError(t, err)

	order := 3
	updated, err := svc.Update(ctx, KindCustomer, e.ID, Input{Detail: strPtr(""), SortOrder: &order})
	require.NoError(t, err)
	assert.Nil(t, updated.Detail)
	assert.Equal(t, 3, updated.SortOrder)
	assert.Equal(t, "Acme Co.", updated.Name)

	_, err = svc.Update(ctx, KindVehicleType, e.ID, Input{Name: strPtr("x")})
	assert.ErrorIs(t, err, ErrEntryNotFound, "id belongs to another kind")

	require.NoError(t, svc.Delete(ctx, KindCustomer, e.ID))
	assert.ErrorIs(t, svc.Delete(ctx, KindCustomer, e.ID), ErrEntryNotFound)

	_, err = svc.Create(ctx, KindCustomer, Input{Name: strPtr("Acme Co.")})
	assert.NoError(t, err, "a deleted name can be reused")
}
