package store

// Schema creates the three tables if they do not exist.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS user_scores (
		user_id                  TEXT PRIMARY KEY,
		demographics             DOUBLE PRECISION NOT NULL DEFAULT 0,
		financial_responsibility DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk_aversion            DOUBLE PRECISION NOT NULL DEFAULT 0,
		impulsivity              DOUBLE PRECISION NOT NULL DEFAULT 0,
		future_orientation       DOUBLE PRECISION NOT NULL DEFAULT 0,
		financial_knowledge      DOUBLE PRECISION NOT NULL DEFAULT 0,
		locus_of_control         DOUBLE PRECISION NOT NULL DEFAULT 0,
		social_influence         DOUBLE PRECISION NOT NULL DEFAULT 0,
		resilience               DOUBLE PRECISION NOT NULL DEFAULT 0,
		familismo                DOUBLE PRECISION NOT NULL DEFAULT 0,
		respect                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk_level               DOUBLE PRECISION NOT NULL DEFAULT 0,
		updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS user_amortization_data (
		user_id    TEXT PRIMARY KEY,
		user_risk  DOUBLE PRECISION NOT NULL,
		instalment DOUBLE PRECISION NOT NULL DEFAULT 0,
		period     INTEGER NOT NULL DEFAULT 0,
		amount     DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS non_defaulters (
		id                       BIGSERIAL PRIMARY KEY,
		user_id                  TEXT NOT NULL UNIQUE,
		demographics             DOUBLE PRECISION NOT NULL DEFAULT 0,
		financial_responsibility DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk_aversion            DOUBLE PRECISION NOT NULL DEFAULT 0,
		impulsivity              DOUBLE PRECISION NOT NULL DEFAULT 0,
		future_orientation       DOUBLE PRECISION NOT NULL DEFAULT 0,
		financial_knowledge      DOUBLE PRECISION NOT NULL DEFAULT 0,
		locus_of_control         DOUBLE PRECISION NOT NULL DEFAULT 0,
		social_influence         DOUBLE PRECISION NOT NULL DEFAULT 0,
		resilience               DOUBLE PRECISION NOT NULL DEFAULT 0,
		familismo                DOUBLE PRECISION NOT NULL DEFAULT 0,
		respect                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		risk_level               DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at               TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}
