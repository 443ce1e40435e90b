package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"crm-service/internal/apperror"
	"crm-service/internal/model"
	"crm-service/internal/tenant"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Setup(db))
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func tenantCtx(parentID uuid.UUID) context.Context {
	ctx := tenant.NewContext(context.Background(), &tenant.Context{ParentID: &parentID})
	return tenant.WithActor(ctx, "tester@example.com")
}

func newCustomer(parentID uuid.UUID, first, last, email string) *model.Customer {
	return &model.Customer{
		TenantEntity:   model.TenantEntity{ParentID: parentID},
		FirstName:      first,
		LastName:       last,
		Email:          email,
		LifecycleStage: model.LifecycleNew,
		IsActive:       true,
	}
}

func TestCreateStampsAuditEnvelope(t *testing.T) {
	db := openTestDB(t)
	parentID := uuid.New()
	ctx := tenantCtx(parentID)

	c := newCustomer(uuid.Nil, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(ctx), c))

	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, parentID, c.ParentID, "owning tenant comes from the request context")
	assert.Equal(t, "tester@example.com", c.CreatedBy)
	assert.Equal(t, int64(1), c.RowVersion)
	assert.False(t, c.CreatedAt.IsZero())
	assert.Nil(t, c.UpdatedAt)
	assert.False(t, bool(c.IsDeleted))
}

func TestCreateForcesTenantFromContext(t *testing.T) {
	db := openTestDB(t)
	ownTenant := uuid.New()
	foreignTenant := uuid.New()

	// A caller supplying a foreign parent id cannot plant a record there.
	c := newCustomer(foreignTenant, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(tenantCtx(ownTenant)), c))
	assert.Equal(t, ownTenant, c.ParentID)
}

func TestCreateKeepsAssignedTenantWithoutContext(t *testing.T) {
	db := openTestDB(t)
	parentID := uuid.New()

	// Seeding writes records under explicit parents with no tenant context.
	c := newCustomer(parentID, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(context.Background()), c))
	assert.Equal(t, parentID, c.ParentID)
	assert.Equal(t, tenant.SystemActor, c.CreatedBy)
}

func TestTenantIsolationOnReads(t *testing.T) {
	db := openTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	a := newCustomer(tenantA, "Jane", "Doe", "jane.a@example.com")
	b := newCustomer(tenantB, "Jane", "Doe", "jane.b@example.com")
	require.NoError(t, Create(db.WithContext(tenantCtx(tenantA)), a))
	require.NoError(t, Create(db.WithContext(tenantCtx(tenantB)), b))

	var visible []model.Customer
	require.NoError(t, db.WithContext(tenantCtx(tenantA)).Find(&visible).Error)
	require.Len(t, visible, 1)
	assert.Equal(t, a.ID, visible[0].ID)

	// Reading the other tenant's row by id is a plain not-found.
	var got model.Customer
	err := First(db.WithContext(tenantCtx(tenantA)), &got, "customer", "id = ?", b.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestNoTenantContextSeesAllTenants(t *testing.T) {
	db := openTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	require.NoError(t, Create(db.WithContext(tenantCtx(tenantA)), newCustomer(tenantA, "Jane", "Doe", "jane.a@example.com")))
	require.NoError(t, Create(db.WithContext(tenantCtx(tenantB)), newCustomer(tenantB, "Jane", "Doe", "jane.b@example.com")))

	// Without a resolved tenant the scope predicate is skipped. The tenant
	// middleware logs and counts these requests; this pins the behavior.
	var all []model.Customer
	require.NoError(t, db.WithContext(context.Background()).Find(&all).Error)
	assert.Len(t, all, 2)
}

func TestTenantIsolationOnWrites(t *testing.T) {
	db := openTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	victim := newCustomer(tenantB, "Jane", "Doe", "jane.b@example.com")
	require.NoError(t, Create(db.WithContext(tenantCtx(tenantB)), victim))

	// Tenant A updating or deleting tenant B's row matches nothing.
	victim.FirstName = "Mallory"
	assert.ErrorIs(t, Update(db.WithContext(tenantCtx(tenantA)), victim), apperror.ErrConflict)
	assert.ErrorIs(t, SoftDelete(db.WithContext(tenantCtx(tenantA)), victim), apperror.ErrConflict)

	var untouched model.Customer
	require.NoError(t, First(db.WithContext(tenantCtx(tenantB)), &untouched, "customer", "id = ?", victim.ID))
	assert.Equal(t, "Jane", untouched.FirstName)
	assert.Equal(t, "tester@example.com", untouched.CreatedBy)
	assert.Equal(t, int64(1), untouched.RowVersion)
}

func TestUpdateStampsAndPreservesCreation(t *testing.T) {
	db := openTestDB(t)
	parentID := uuid.New()
	ctx := tenantCtx(parentID)

	c := newCustomer(uuid.Nil, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(ctx), c))
	createdAt := c.CreatedAt
	createdBy := c.CreatedBy

	time.Sleep(10 * time.Millisecond)
	otherActor := tenant.WithActor(tenant.NewContext(context.Background(), &tenant.Context{ParentID: &parentID}), "editor@example.com")
	c.Phone = "555-0100"
	require.NoError(t, Update(db.WithContext(otherActor), c))

	var got model.Customer
	require.NoError(t, First(db.WithContext(ctx), &got, "customer", "id = ?", c.ID))
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, int64(2), got.RowVersion)
	assert.Equal(t, "editor@example.com", got.UpdatedBy)
	require.NotNil(t, got.UpdatedAt)
	assert.Equal(t, createdBy, got.CreatedBy, "creation audit fields are immutable")
	assert.WithinDuration(t, createdAt, got.CreatedAt, time.Second)
}

func TestUpdateStaleRowVersionConflicts(t *testing.T) {
	db := openTestDB(t)
	parentID := uuid.New()
	ctx := tenantCtx(parentID)

	c := newCustomer(uuid.Nil, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(ctx), c))

	// Two sessions read the same version; the second write loses.
	stale := *c
	c.Phone = "555-0100"
	require.NoError(t, Update(db.WithContext(ctx), c))

	stale.Phone = "555-0199"
	err := Update(db.WithContext(ctx), &stale)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.True(t, apperror.IsRetryable(err))

	var got model.Customer
	require.NoError(t, First(db.WithContext(ctx), &got, "customer", "id = ?", c.ID))
	assert.Equal(t, "555-0100", got.Phone, "first write wins")
}

func TestSoftDeleteKeepsRowInStorage(t *testing.T) {
	db := openTestDB(t)
	parentID := uuid.New()
	ctx := tenantCtx(parentID)

	c := newCustomer(uuid.Nil, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(ctx), c))
	require.NoError(t, SoftDelete(db.WithContext(ctx), c))

	// Invisible through the gateway.
	var got model.Customer
	err := First(db.WithContext(ctx), &got, "customer", "id = ?", c.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var count int64
	require.NoError(t, db.WithContext(ctx).Model(&model.Customer{}).Count(&count).Error)
	assert.Zero(t, count)

	// Still in storage with the deletion stamp.
	var raw model.Customer
	require.NoError(t, db.WithContext(ctx).Unscoped().First(&raw, "id = ?", c.ID).Error)
	assert.True(t, bool(raw.IsDeleted))
	require.NotNil(t, raw.DeletedAt)
	assert.Equal(t, "tester@example.com", raw.DeletedBy)
}

func TestSoftDeletedRowCannotBeUpdated(t *testing.T) {
	db := openTestDB(t)
	parentID := uuid.New()
	ctx := tenantCtx(parentID)

	c := newCustomer(uuid.Nil, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(ctx), c))
	require.NoError(t, SoftDelete(db.WithContext(ctx), c))

	c.Phone = "555-0100"
	assert.ErrorIs(t, Update(db.WithContext(ctx), c), apperror.ErrConflict)

	// The row was not resurrected or rewritten underneath the guard.
	var raw model.Customer
	require.NoError(t, db.WithContext(ctx).Unscoped().First(&raw, "id = ?", c.ID).Error)
	assert.True(t, bool(raw.IsDeleted))
	assert.Empty(t, raw.Phone)
}

func TestDeleteIsIdempotentConflict(t *testing.T) {
	db := openTestDB(t)
	parentID := uuid.New()
	ctx := tenantCtx(parentID)

	c := newCustomer(uuid.Nil, "Jane", "Doe", "jane.doe@example.com")
	require.NoError(t, Create(db.WithContext(ctx), c))
	require.NoError(t, SoftDelete(db.WithContext(ctx), c))

	// A second delete matches no live row.
	assert.ErrorIs(t, SoftDelete(db.WithContext(ctx), c), apperror.ErrConflict)
}

func TestFirstUniformNotFound(t *testing.T) {
	db := openTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	ctxA := tenantCtx(tenantA)

	deleted := newCustomer(uuid.Nil, "Jane", "Doe", "deleted@example.com")
	require.NoError(t, Create(db.WithContext(ctxA), deleted))
	require.NoError(t, SoftDelete(db.WithContext(ctxA), deleted))

	foreign := newCustomer(uuid.Nil, "Jane", "Doe", "foreign@example.com")
	require.NoError(t, Create(db.WithContext(tenantCtx(tenantB)), foreign))

	// Nonexistent, soft-deleted and foreign-tenant rows are
	// indistinguishable to the caller.
	for _, id := range []uuid.UUID{uuid.New(), deleted.ID, foreign.ID} {
		var got model.Customer
		err := First(db.WithContext(ctxA), &got, "customer", "id = ?", id)
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	}
}

func TestSameCustomerNameAcrossTenants(t *testing.T) {
	db := openTestDB(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	// Jane Doe exists independently under both brands.
	janeA := newCustomer(tenantA, "Jane", "Doe", "jane@example.com")
	janeB := newCustomer(tenantB, "Jane", "Doe", "jane@example.com")
	require.NoError(t, Create(db.WithContext(tenantCtx(tenantA)), janeA))
	require.NoError(t, Create(db.WithContext(tenantCtx(tenantB)), janeB))
	require.NotEqual(t, janeA.ID, janeB.ID)

	// A visit recorded under tenant A touches only tenant A's Jane.
	janeA.TotalVisits = 1
	janeA.TotalSpent = 89.99
	janeA.LifecycleStage = model.LifecycleActive
	require.NoError(t, Update(db.WithContext(tenantCtx(tenantA)), janeA))

	var gotB model.Customer
	require.NoError(t, First(db.WithContext(tenantCtx(tenantB)), &gotB, "customer", "id = ?", janeB.ID))
	assert.Zero(t, gotB.TotalVisits)
	assert.Equal(t, model.LifecycleNew, gotB.LifecycleStage)
}
