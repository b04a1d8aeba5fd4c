package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// Schema follows the game lifecycle: users and profiles, then runs and
// their immutable scores, then leaderboard snapshots.
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users_profiles",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_runs_scores",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_leaderboard_snapshots",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT UNIQUE,
	status TEXT NOT NULL DEFAULT 'active',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	handle TEXT NOT NULL UNIQUE,
	level INTEGER NOT NULL DEFAULT 1,
	xp INTEGER NOT NULL DEFAULT 0,
	avatar_layers JSONB NOT NULL DEFAULT '{}'::jsonb
);
`

const migration001Down = `
DROP TABLE IF EXISTS profiles;
DROP TABLE IF EXISTS users;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS runs (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id),
	dungeon_id UUID NOT NULL,
	seed BIGINT NOT NULL DEFAULT 0,
	floor INTEGER NOT NULL DEFAULT 1,
	status TEXT NOT NULL DEFAULT 'in_progress'
		CHECK (status IN ('in_progress', 'completed', 'abandoned', 'failed')),
	session_token TEXT,
	total_score INTEGER,
	signature TEXT,
	summary JSONB,
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_runs_user_started ON runs (user_id, started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs (status);

CREATE TABLE IF NOT EXISTS scores (
	id UUID PRIMARY KEY,
	run_id UUID NOT NULL REFERENCES runs(id),
	user_id UUID NOT NULL REFERENCES users(id),
	floor INTEGER NOT NULL,
	correct_count INTEGER NOT NULL,
	turn_count INTEGER NOT NULL,
	total_time_ms INTEGER NOT NULL,
	streak_max INTEGER NOT NULL,
	score INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_scores_run ON scores (run_id);
CREATE INDEX IF NOT EXISTS idx_scores_user_created ON scores (user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_scores_score ON scores (score DESC);
CREATE INDEX IF NOT EXISTS idx_scores_created ON scores (created_at);
`

const migration002Down = `
DROP TABLE IF EXISTS scores;
DROP TABLE IF EXISTS runs;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
	id UUID PRIMARY KEY,
	scope TEXT NOT NULL,
	period_key TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_leaderboard_snapshots_scope_period
	ON leaderboard_snapshots (scope, period_key, created_at DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS leaderboard_snapshots;
`
