package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jayanthansenthilkumar/Dhiksha/core"
)

// SQLiteRepository 是 SQLite 实现的 Repository，单机部署的默认后端。
//
// 一致性模型：Snapshot() 在一个只读事务内完成全部读取，天然点时一致；
// AppendLog 在一个写事务内整批插入，ctx 取消时回滚，不会留下半截日志。
type SQLiteRepository struct {
	db *sql.DB
}

// OpenSQLite 打开（必要时创建）SQLite 库并建表。
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	r := &SQLiteRepository{db: db}
	if err := r.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

var _ core.Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) Name() string { return "sqlite" }

func (r *SQLiteRepository) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			name TEXT,
			email TEXT,
			cohort_tag TEXT,
			skill_level TEXT,
			interests TEXT,
			created_at TEXT,
			last_active TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS content (
			content_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			content_type TEXT,
			difficulty TEXT,
			tags TEXT,
			duration_minutes INTEGER,
			popularity_score REAL DEFAULT 0.0,
			created_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id TEXT PRIMARY KEY,
			user_id TEXT,
			content_id TEXT,
			event_type TEXT,
			value REAL,
			session_id TEXT,
			timestamp TEXT,
			FOREIGN KEY (user_id) REFERENCES users(user_id),
			FOREIGN KEY (content_id) REFERENCES content(content_id)
		)`,
		`CREATE TABLE IF NOT EXISTS recommendation_logs (
			log_id TEXT PRIMARY KEY,
			user_id TEXT,
			content_id TEXT,
			score REAL,
			strategy TEXT,
			model_version TEXT,
			reason_tags TEXT,
			timestamp TEXT,
			clicked INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user ON events(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_content ON events(content_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_recs_user ON recommendation_logs(user_id)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (r *SQLiteRepository) Snapshot(ctx context.Context) (*core.Snapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	defer tx.Rollback()

	users, err := loadUsers(ctx, tx)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	contents, err := loadContents(ctx, tx)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	events, err := loadEvents(ctx, tx)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return core.NewSnapshot(time.Now(), users, contents, events), nil
}

func loadUsers(ctx context.Context, tx *sql.Tx) ([]*core.User, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT user_id, name, email, cohort_tag, skill_level, interests, created_at, last_active FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*core.User
	for rows.Next() {
		var u core.User
		var cohort, skill, interests string
		var createdAt, lastActive sql.NullString
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &cohort, &skill, &interests, &createdAt, &lastActive); err != nil {
			return nil, err
		}
		u.Cohort = core.Cohort(cohort)
		u.SkillLevel = core.SkillLevel(skill)
		u.Interests = splitCSV(interests)
		u.CreatedAt = parseTime(createdAt.String)
		u.LastActive = parseTime(lastActive.String)
		users = append(users, &u)
	}
	return users, rows.Err()
}

func loadContents(ctx context.Context, tx *sql.Tx) ([]*core.Content, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT content_id, title, description, content_type, difficulty, tags, duration_minutes, popularity_score, created_at FROM content`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []*core.Content
	for rows.Next() {
		var c core.Content
		var ctype, difficulty, tags string
		var createdAt sql.NullString
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &ctype, &difficulty, &tags, &c.DurationMinutes, &c.Popularity, &createdAt); err != nil {
			return nil, err
		}
		c.Type = core.ContentType(ctype)
		c.Difficulty = core.Difficulty(difficulty)
		c.Tags = splitCSV(tags)
		c.CreatedAt = parseTime(createdAt.String)
		contents = append(contents, &c)
	}
	return contents, rows.Err()
}

func loadEvents(ctx context.Context, tx *sql.Tx) ([]*core.Event, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT event_id, user_id, content_id, event_type, value, session_id, timestamp FROM events`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*core.Event
	for rows.Next() {
		var ev core.Event
		var etype string
		var value sql.NullFloat64
		var session, ts sql.NullString
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.ContentID, &etype, &value, &session, &ts); err != nil {
			return nil, err
		}
		ev.Type = core.EventType(etype)
		ev.Value = value.Float64
		ev.SessionID = session.String
		ev.Timestamp = parseTime(ts.String)
		events = append(events, &ev)
	}
	return events, rows.Err()
}

func (r *SQLiteRepository) AppendEvent(ctx context.Context, ev *core.Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO events (event_id, user_id, content_id, event_type, value, session_id, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.ContentID, string(ev.Type), ev.Value, ev.SessionID, formatTime(ev.Timestamp))
	return wrapUnavailable(err)
}

func (r *SQLiteRepository) AppendLog(ctx context.Context, entries []*core.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapUnavailable(err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO recommendation_logs (log_id, user_id, content_id, score, strategy, model_version, reason_tags, timestamp, clicked)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
			e.ID, e.UserID, e.ContentID, e.Score, string(e.Strategy), e.ModelVersion,
			strings.Join(e.ReasonTags, ","), formatTime(e.Timestamp)); err != nil {
			tx.Rollback()
			return wrapUnavailable(err)
		}
	}
	return wrapUnavailable(tx.Commit())
}

func (r *SQLiteRepository) UpdateUserLastActive(ctx context.Context, userID string, ts time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET last_active = ? WHERE user_id = ?`, formatTime(ts), userID)
	if err != nil {
		return wrapUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrUserNotFound
	}
	return nil
}

func (r *SQLiteRepository) UpdateContentPopularity(ctx context.Context, contentID string, score float64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE content SET popularity_score = ? WHERE content_id = ?`, score, contentID)
	if err != nil {
		return wrapUnavailable(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrContentNotFound
	}
	return nil
}

func (r *SQLiteRepository) Close() error { return r.db.Close() }

// InsertUser / InsertContent 供种子数据装载使用。
func (r *SQLiteRepository) InsertUser(ctx context.Context, u *core.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, name, email, cohort_tag, skill_level, interests, created_at, last_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, string(u.Cohort), string(u.SkillLevel),
		strings.Join(u.Interests, ","), formatTime(u.CreatedAt), formatTime(u.LastActive))
	return wrapUnavailable(err)
}

func (r *SQLiteRepository) InsertContent(ctx context.Context, c *core.Content) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO content (content_id, title, description, content_type, difficulty, tags, duration_minutes, popularity_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, string(c.Type), string(c.Difficulty),
		strings.Join(c.Tags, ","), c.DurationMinutes, c.Popularity, formatTime(c.CreatedAt))
	return wrapUnavailable(err)
}

// UserCount 返回用户数，种子装载前用它判断库是否已初始化过。
func (r *SQLiteRepository) UserCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, wrapUnavailable(err)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func wrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: "+err.Error())
}
