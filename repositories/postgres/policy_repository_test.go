package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/corporatepay/console-api/models"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return &DB{DB: sqlDB, logger: zap.NewNop()}, mock
}

func TestPolicyRepository_GetOrgPolicy(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db, zap.NewNop())

	orgID := uuid.New()
	updatedBy := uuid.New()
	now := time.Now()

	document := models.PolicyDocument{
		Rides: models.RidePolicy{
			Categories: models.RideCategories{Standard: true, Premium: true},
			Time:       models.TimeWindow{Start: "08:00", End: "18:00", Days: []string{"Mon", "Fri"}},
		},
		Purchases: models.PurchasePolicy{
			Modules:   map[string]bool{"services": true},
			MaxBasket: decimal.NewFromInt(5_000_000),
		},
	}
	raw, err := json.Marshal(document)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT org_id, document, updated_by, created_at, updated_at\s+FROM org_policies`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"org_id", "document", "updated_by", "created_at", "updated_at"}).
			AddRow(orgID, raw, updatedBy, now, now))

	policy, err := repo.GetOrgPolicy(context.Background(), orgID)

	require.NoError(t, err)
	assert.Equal(t, orgID, policy.OrgID)
	assert.Equal(t, document, policy.Document)
	assert.True(t, policy.Document.Purchases.MaxBasket.Equal(decimal.NewFromInt(5_000_000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_GetOverrideAbsentIsNotAnError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db, zap.NewNop())

	subjectID := uuid.New()
	mock.ExpectQuery(`SELECT id, org_id, scope, subject_id, override, updated_by, created_at, updated_at\s+FROM policy_overrides`).
		WithArgs(models.OverrideScopeGroup, subjectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "scope", "subject_id", "override", "updated_by", "created_at", "updated_at"}))

	record, err := repo.GetOverride(context.Background(), models.OverrideScopeGroup, subjectID)

	assert.NoError(t, err)
	assert.Nil(t, record)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_GetOverrideRoundTripsPointerFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db, zap.NewNop())

	subjectID := uuid.New()
	now := time.Now()

	categories := models.RideCategories{Standard: true, Premium: false}
	override := models.PolicyOverride{
		Rides: models.RideOverride{Categories: &categories},
	}
	raw, err := json.Marshal(override)
	require.NoError(t, err)

	record := models.NewPolicyOverrideRecord(uuid.New(), models.OverrideScopeUser, subjectID, override, uuid.New())
	mock.ExpectQuery(`FROM policy_overrides`).
		WithArgs(models.OverrideScopeUser, subjectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_id", "scope", "subject_id", "override", "updated_by", "created_at", "updated_at"}).
			AddRow(record.ID, record.OrgID, record.Scope, record.SubjectID, raw, record.UpdatedBy, now, now))

	got, err := repo.GetOverride(context.Background(), models.OverrideScopeUser, subjectID)

	require.NoError(t, err)
	require.NotNil(t, got)
	require.NotNil(t, got.Override.Rides.Categories)
	assert.False(t, got.Override.Rides.Categories.Premium)
	// Fields absent from the stored override stay nil, preserving inheritance.
	assert.Nil(t, got.Override.Rides.Geofences)
	assert.Nil(t, got.Override.Purchases.MaxBasket)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_UpsertOrgPolicy(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db, zap.NewNop())

	policy := &models.OrgPolicy{
		OrgID:     uuid.New(),
		Document:  models.PolicyDocument{},
		UpdatedBy: uuid.New(),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO org_policies`).
		WithArgs(policy.OrgID, sqlmock.AnyArg(), policy.UpdatedBy, policy.CreatedAt, policy.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertOrgPolicy(context.Background(), policy)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPolicyRepository_DeleteOverrideMissingIsNoOp(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPolicyRepository(db, zap.NewNop())

	subjectID := uuid.New()
	mock.ExpectExec(`DELETE FROM policy_overrides`).
		WithArgs(models.OverrideScopeUser, subjectID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteOverride(context.Background(), models.OverrideScopeUser, subjectID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
