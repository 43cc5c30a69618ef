package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"score-handler/internal/models"
)

// ==========================
// Test Helpers
// ==========================

var factorColumnNames = []string{
	"demographics", "financial_responsibility", "risk_aversion", "impulsivity",
	"future_orientation", "financial_knowledge", "locus_of_control", "social_influence",
	"resilience", "familismo", "respect", "risk_level",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func sampleFactors() models.Factors {
	return models.Factors{
		Demographics: 11.2, FinancialResponsibility: 6.1, RiskAversion: 13.1, Impulsivity: 4.2,
		FutureOrientation: 7.7, FinancialKnowledge: 8.8, LocusOfControl: 5.5, SocialInfluence: 3.3,
		Resilience: 9.9, Familismo: 2.2, Respect: 1.1, RiskLevel: 64.5,
	}
}

func factorValues(f models.Factors) []interface{} {
	v := f.Vector()
	out := make([]interface{}, 0, len(v))
	for _, x := range v {
		out = append(out, x)
	}
	return out
}

// ==========================
// Risk profiles
// ==========================

func TestGetUserRiskProfile(t *testing.T) {
	s, mock := newMockStore(t)
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cols := append(append([]string{"user_id"}, factorColumnNames...), "updated_at")
	values := append(append([]interface{}{"u1"}, factorValues(sampleFactors())...), updated)

	rows := sqlmock.NewRows(cols)
	rows.AddRow(toDriverValues(values)...)
	mock.ExpectQuery("SELECT user_id, (.+) FROM user_scores WHERE user_id = \\$1").
		WithArgs("u1").
		WillReturnRows(rows)

	p, err := s.GetUserRiskProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, sampleFactors(), p.Factors)
	assert.Equal(t, updated, p.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserRiskProfile_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM user_scores").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := s.GetUserRiskProfile(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUserRiskProfile(t *testing.T) {
	s, mock := newMockStore(t)
	updated := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

	args := append([]interface{}{"u1"}, factorValues(sampleFactors())...)
	mock.ExpectQuery("INSERT INTO user_scores (.+) ON CONFLICT \\(user_id\\) DO UPDATE").
		WithArgs(toDriverValues(args)...).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))

	p := &models.UserRiskProfile{UserID: "u1", Factors: sampleFactors()}
	require.NoError(t, s.UpsertUserRiskProfile(context.Background(), p))
	assert.Equal(t, updated, p.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertUserRiskProfile_Error(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO user_scores").WillReturnError(errors.New("connection reset"))

	err := s.UpsertUserRiskProfile(context.Background(), &models.UserRiskProfile{UserID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert risk profile")
}

// ==========================
// Amortization records
// ==========================

func TestAmortizationRecord(t *testing.T) {
	s, mock := newMockStore(t)
	updated := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO user_amortization_data (.+) ON CONFLICT").
		WithArgs("u1", 72.5, 0.0, 12, 5000.0).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))
	mock.ExpectQuery("SELECT (.+) FROM user_amortization_data WHERE user_id = \\$1").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "user_risk", "instalment", "period", "amount", "updated_at"}).
			AddRow("u1", 72.5, 0.0, 12, 5000.0, updated))

	rec := &models.AmortizationRecord{UserID: "u1", UserRisk: 72.5, Period: 12, Amount: 5000}
	require.NoError(t, s.UpsertAmortizationRecord(context.Background(), rec))
	assert.Equal(t, updated, rec.UpdatedAt)

	got, err := s.GetAmortizationRecord(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAmortizationRecord_NotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("FROM user_amortization_data").WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := s.GetAmortizationRecord(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ==========================
// Reference population
// ==========================

func TestListReferencePopulation(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cols := append(append([]string{"id", "user_id"}, factorColumnNames...), "created_at")
	rows := sqlmock.NewRows(cols)
	for i, id := range []string{"nd-1", "nd-2"} {
		vals := append(append([]interface{}{int64(i + 1), id}, factorValues(sampleFactors())...), created)
		rows.AddRow(toDriverValues(vals)...)
	}
	mock.ExpectQuery("SELECT id, user_id, (.+) FROM non_defaulters ORDER BY id").WillReturnRows(rows)

	got, err := s.ListReferencePopulation(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "nd-2", got[1].UserID)
	assert.Equal(t, sampleFactors(), got[1].Factors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReferenceProfile(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	args := append([]interface{}{"nd-9"}, factorValues(sampleFactors())...)
	mock.ExpectQuery("INSERT INTO non_defaulters").
		WithArgs(toDriverValues(args)...).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), created))

	p := &models.NonDefaulterProfile{UserID: "nd-9", Factors: sampleFactors()}
	require.NoError(t, s.InsertReferenceProfile(context.Background(), p))
	assert.Equal(t, int64(9), p.ID)
	assert.Equal(t, created, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReferenceProfile_Duplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("INSERT INTO non_defaulters").
		WillReturnError(&pq.Error{Code: uniqueViolation, Message: "duplicate key"})

	err := s.InsertReferenceProfile(context.Background(), &models.NonDefaulterProfile{UserID: "nd-1"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestReplaceReferenceProfile(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "replaces existing member",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("UPDATE non_defaulters SET (.+) WHERE user_id = \\$1").
					WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), time.Now()))
			},
		},
		{
			name: "unknown member",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("UPDATE non_defaulters").WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			tt.setup(mock)

			p := &models.NonDefaulterProfile{UserID: "nd-3", Factors: sampleFactors()}
			err := s.ReplaceReferenceProfile(context.Background(), p)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(3), p.ID)
		})
	}
}

func toDriverValues(in []interface{}) []driver.Value {
	out := make([]driver.Value, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
