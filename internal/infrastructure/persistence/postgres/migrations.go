package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CHILDREN
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Children tracked by the ledger. Soft state only: archiving flips a
-- flag, hard delete is guarded at the application layer by the usage
-- check over lessons and payments.
CREATE TABLE IF NOT EXISTS children (
    id UUID PRIMARY KEY,
    operator_id BIGINT NOT NULL,
    name VARCHAR(100) NOT NULL,
    age SMALLINT NOT NULL DEFAULT 0,
    unit_price NUMERIC(12,2) NOT NULL DEFAULT 0,
    archived BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_age CHECK (age >= 0 AND age <= 18),
    CONSTRAINT valid_unit_price CHECK (unit_price >= 0)
);

CREATE INDEX IF NOT EXISTS idx_children_operator_id ON children(operator_id);
CREATE INDEX IF NOT EXISTS idx_children_archived ON children(archived);
`

const migration001Down = `
DROP TABLE IF EXISTS children;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: LESSONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Lessons. Dates and times are stored as the same fixed-width strings
-- the application compares ("YYYY-MM-DD", "HH:MM"), so range filters are
-- plain string comparisons. No FK to children: a child delete is guarded
-- by counting references, and history must survive archiving.
CREATE TABLE IF NOT EXISTS lessons (
    id UUID PRIMARY KEY,
    operator_id BIGINT NOT NULL,
    child_id UUID NOT NULL,
    lesson_date CHAR(10) NOT NULL,
    start_time CHAR(5) NOT NULL,
    end_time CHAR(5) NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    cancelled BOOLEAN NOT NULL DEFAULT FALSE,
    paid BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_time_span CHECK (end_time > start_time)
);

CREATE INDEX IF NOT EXISTS idx_lessons_operator_id ON lessons(operator_id);
CREATE INDEX IF NOT EXISTS idx_lessons_child_id ON lessons(child_id);
CREATE INDEX IF NOT EXISTS idx_lessons_date ON lessons(lesson_date);
CREATE INDEX IF NOT EXISTS idx_lessons_date_start ON lessons(lesson_date, start_time);
`

const migration002Down = `
DROP TABLE IF EXISTS lessons;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: PAYMENTS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
CREATE TABLE IF NOT EXISTS payments (
    id UUID PRIMARY KEY,
    operator_id BIGINT NOT NULL,
    child_id UUID NOT NULL,
    amount NUMERIC(12,2) NOT NULL,
    lessons_count INTEGER NOT NULL,
    payment_date CHAR(10) NOT NULL,
    note TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_amount CHECK (amount > 0),
    CONSTRAINT valid_lessons_count CHECK (lessons_count > 0)
);

CREATE INDEX IF NOT EXISTS idx_payments_operator_id ON payments(operator_id);
CREATE INDEX IF NOT EXISTS idx_payments_child_id ON payments(child_id);
CREATE INDEX IF NOT EXISTS idx_payments_date ON payments(payment_date);
`

const migration003Down = `
DROP TABLE IF EXISTS payments;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: OPERATORS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Operator profiles, upserted on /start. Informational only: access is
-- decided by the configured allowlist, never by this table.
CREATE TABLE IF NOT EXISTS operators (
    telegram_id BIGINT PRIMARY KEY,
    username VARCHAR(100) NOT NULL DEFAULT '',
    first_name VARCHAR(100) NOT NULL DEFAULT '',
    last_name VARCHAR(100) NOT NULL DEFAULT '',
    first_seen_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    last_seen_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);
`

const migration004Down = `
DROP TABLE IF EXISTS operators;
`

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_children", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_lessons", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "create_payments", UpSQL: migration003Up, DownSQL: migration003Down},
		{Version: 4, Name: "create_operators", UpSQL: migration004Up, DownSQL: migration004Down},
	}
}
