package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"score-handler/internal/models"
)

const uniqueViolation = "23505"

const factorColumns = `demographics, financial_responsibility, risk_aversion, impulsivity,
	future_orientation, financial_knowledge, locus_of_control, social_influence,
	resilience, familismo, respect, risk_level`

const factorUpdates = `demographics = EXCLUDED.demographics,
	financial_responsibility = EXCLUDED.financial_responsibility,
	risk_aversion = EXCLUDED.risk_aversion,
	impulsivity = EXCLUDED.impulsivity,
	future_orientation = EXCLUDED.future_orientation,
	financial_knowledge = EXCLUDED.financial_knowledge,
	locus_of_control = EXCLUDED.locus_of_control,
	social_influence = EXCLUDED.social_influence,
	resilience = EXCLUDED.resilience,
	familismo = EXCLUDED.familismo,
	respect = EXCLUDED.respect,
	risk_level = EXCLUDED.risk_level`

const (
	selectProfileQuery = `SELECT user_id, ` + factorColumns + `, updated_at
		FROM user_scores WHERE user_id = $1`

	upsertProfileQuery = `INSERT INTO user_scores (user_id, ` + factorColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (user_id) DO UPDATE SET ` + factorUpdates + `, updated_at = now()
		RETURNING updated_at`

	selectPlanQuery = `SELECT user_id, user_risk, instalment, period, amount, updated_at
		FROM user_amortization_data WHERE user_id = $1`

	upsertPlanQuery = `INSERT INTO user_amortization_data (user_id, user_risk, instalment, period, amount, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id) DO UPDATE SET user_risk = EXCLUDED.user_risk,
			instalment = EXCLUDED.instalment, period = EXCLUDED.period,
			amount = EXCLUDED.amount, updated_at = now()
		RETURNING updated_at`

	listReferenceQuery = `SELECT id, user_id, ` + factorColumns + `, created_at
		FROM non_defaulters ORDER BY id`

	insertReferenceQuery = `INSERT INTO non_defaulters (user_id, ` + factorColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	replaceReferenceQuery = `UPDATE non_defaulters SET (` + factorColumns + `) =
		($2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		WHERE user_id = $1
		RETURNING id, created_at`
)

// PostgresStore implements Store on database/sql with the lib/pq driver.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetUserRiskProfile(ctx context.Context, userID string) (*models.UserRiskProfile, error) {
	p := &models.UserRiskProfile{}
	dest := append([]interface{}{&p.UserID}, factorDest(&p.Factors)...)
	dest = append(dest, &p.UpdatedAt)

	err := s.db.QueryRowContext(ctx, selectProfileQuery, userID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select risk profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpsertUserRiskProfile(ctx context.Context, profile *models.UserRiskProfile) error {
	args := append([]interface{}{profile.UserID}, factorArgs(profile.Factors)...)
	if err := s.db.QueryRowContext(ctx, upsertProfileQuery, args...).Scan(&profile.UpdatedAt); err != nil {
		return fmt.Errorf("upsert risk profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAmortizationRecord(ctx context.Context, userID string) (*models.AmortizationRecord, error) {
	r := &models.AmortizationRecord{}
	err := s.db.QueryRowContext(ctx, selectPlanQuery, userID).
		Scan(&r.UserID, &r.UserRisk, &r.Instalment, &r.Period, &r.Amount, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select amortization record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpsertAmortizationRecord(ctx context.Context, record *models.AmortizationRecord) error {
	err := s.db.QueryRowContext(ctx, upsertPlanQuery,
		record.UserID, record.UserRisk, record.Instalment, record.Period, record.Amount,
	).Scan(&record.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert amortization record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListReferencePopulation(ctx context.Context) ([]models.NonDefaulterProfile, error) {
	rows, err := s.db.QueryContext(ctx, listReferenceQuery)
	if err != nil {
		return nil, fmt.Errorf("list reference population: %w", err)
	}
	defer rows.Close()

	var out []models.NonDefaulterProfile
	for rows.Next() {
		var p models.NonDefaulterProfile
		dest := append([]interface{}{&p.ID, &p.UserID}, factorDest(&p.Factors)...)
		dest = append(dest, &p.CreatedAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan reference profile: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reference population: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) InsertReferenceProfile(ctx context.Context, profile *models.NonDefaulterProfile) error {
	args := append([]interface{}{profile.UserID}, factorArgs(profile.Factors)...)
	err := s.db.QueryRowContext(ctx, insertReferenceQuery, args...).Scan(&profile.ID, &profile.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("insert reference profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) ReplaceReferenceProfile(ctx context.Context, profile *models.NonDefaulterProfile) error {
	args := append([]interface{}{profile.UserID}, factorArgs(profile.Factors)...)
	err := s.db.QueryRowContext(ctx, replaceReferenceQuery, args...).Scan(&profile.ID, &profile.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("replace reference profile: %w", err)
	}
	return nil
}

func factorArgs(f models.Factors) []interface{} {
	v := f.Vector()
	out := make([]interface{}, len(v))
	for i := range v {
		out[i] = v[i]
	}
	return out
}

func factorDest(f *models.Factors) []interface{} {
	return []interface{}{
		&f.Demographics,
		&f.FinancialResponsibility,
		&f.RiskAversion,
		&f.Impulsivity,
		&f.FutureOrientation,
		&f.FinancialKnowledge,
		&f.LocusOfControl,
		&f.SocialInfluence,
		&f.Resilience,
		&f.Familismo,
		&f.Respect,
		&f.RiskLevel,
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
