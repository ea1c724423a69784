package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/seo-audit-engine/pkg/core/domain"
	"github.com/wadjakorntonsri/seo-audit-engine/pkg/ports"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := migrate(db); err != nil {
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

// NewFromDB wraps an already migrated connection
func NewFromDB(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS audits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		url TEXT NOT NULL,
		url_lower TEXT NOT NULL DEFAULT '',
		title TEXT,
		overall_score REAL NOT NULL,
		analysis JSON NOT NULL,
		page_data JSON,
		serp_data JSON,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audits_user_created ON audits(user_id, created_at);

	CREATE TABLE IF NOT EXISTS link_batches (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		page_url TEXT,
		summary JSON,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_link_batches_user ON link_batches(user_id);

	CREATE TABLE IF NOT EXISTS link_opportunities (
		batch_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		target_page TEXT,
		target_url TEXT,
		anchor_text TEXT,
		context TEXT,
		position_percentage INTEGER NOT NULL,
		relevance_score REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		PRIMARY KEY (batch_id, seq),
		FOREIGN KEY(batch_id) REFERENCES link_batches(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS deployments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		page_id TEXT NOT NULL,
		deployment_id TEXT NOT NULL,
		links_count INTEGER NOT NULL DEFAULT 0,
		content_length_before INTEGER NOT NULL DEFAULT 0,
		content_length_after INTEGER NOT NULL DEFAULT 0,
		deployed_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deployments_user_deployed ON deployments(user_id, deployed_at);

	CREATE TABLE IF NOT EXISTS revoked_sessions (
		session_id TEXT PRIMARY KEY,
		expires_at DATETIME NOT NULL
	);
	`
	if _, err := db.Exec(query); err != nil {
		return err
	}
	return ensureURLLower(db)
}

// ensureURLLower adds url_lower to audit tables created without it and
// fills it for existing rows. SQLite's LOWER only folds ASCII, so the
// folded copy is computed here.
func ensureURLLower(db *sql.DB) error {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('audits') WHERE name = 'url_lower'`).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		if _, err := db.Exec(`ALTER TABLE audits ADD COLUMN url_lower TEXT NOT NULL DEFAULT ''`); err != nil {
			return err
		}
	}

	rows, err := db.Query(`SELECT id, url FROM audits WHERE url_lower = '' AND url != ''`)
	if err != nil {
		return err
	}
	pending := map[string]string{}
	for rows.Next() {
		var id, u string
		if err := rows.Scan(&id, &u); err != nil {
			rows.Close()
			return err
		}
		pending[id] = strings.ToLower(u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id, lowered := range pending {
		if _, err := db.Exec(`UPDATE audits SET url_lower = ? WHERE id = ?`, lowered, id); err != nil {
			return err
		}
	}
	return nil
}

// --- Audits ---

const auditColumns = `id, user_id, url, title, overall_score, analysis, page_data, serp_data, created_at`

func (r *SQLiteRepository) CreateAudit(ctx context.Context, a *domain.AuditRecord) error {
	analysisJSON, err := json.Marshal(a.Analysis)
	if err != nil {
		return err
	}
	pageJSON, err := json.Marshal(a.PageData)
	if err != nil {
		return err
	}
	var serpJSON []byte
	if a.SerpData != nil {
		if serpJSON, err = json.Marshal(a.SerpData); err != nil {
			return err
		}
	}

	// Single statement: the record is stored whole or not at all
	query := `INSERT INTO audits (` + auditColumns + `, url_lower) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.URL, a.Title, a.OverallScore,
		analysisJSON, pageJSON, serpJSON, a.CreatedAt.UTC(), strings.ToLower(a.URL),
	)
	return err
}

func (r *SQLiteRepository) GetAudit(ctx context.Context, userID, id string) (*domain.AuditRecord, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE id = ? AND user_id = ?`

	a, err := scanAudit(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *SQLiteRepository) ListAudits(ctx context.Context, userID string, q domain.HistoryQuery) ([]domain.AuditRecord, error) {
	where, args := auditWhere(userID, q.Filter)

	direction := "DESC"
	if q.Ascending {
		direction = "ASC"
	}
	query := `SELECT ` + auditColumns + ` FROM audits WHERE ` + where +
		` ORDER BY ` + sortColumn(q.SortBy) + ` ` + direction + `, id ` + direction + ` LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	audits := []domain.AuditRecord{}
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, *a)
	}
	return audits, rows.Err()
}

func (r *SQLiteRepository) CountAudits(ctx context.Context, userID string, f domain.AuditFilter) (int, error) {
	where, args := auditWhere(userID, f)

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audits WHERE `+where, args...).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) AuditScores(ctx context.Context, userID string) ([]domain.ScoredAudit, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, overall_score FROM audits WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := []domain.ScoredAudit{}
	for rows.Next() {
		var s domain.ScoredAudit
		if err := rows.Scan(&s.ID, &s.OverallScore); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

func (r *SQLiteRepository) DeleteAudits(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, userID)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM audits WHERE user_id = ? AND id IN (`+placeholders+`)`, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *SQLiteRepository) DumpAudits(ctx context.Context) ([]domain.AuditRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+auditColumns+` FROM audits ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []domain.AuditRecord
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, *a)
	}
	return audits, rows.Err()
}

func auditWhere(userID string, f domain.AuditFilter) (string, []interface{}) {
	clauses := []string{"user_id = ?"}
	args := []interface{}{userID}

	if f.MinScore != nil {
		clauses = append(clauses, "overall_score >= ?")
		args = append(args, *f.MinScore)
	}
	if f.MaxScore != nil {
		clauses = append(clauses, "overall_score <= ?")
		args = append(args, *f.MaxScore)
	}
	if f.URLContains != "" {
		clauses = append(clauses, `url_lower LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(f.URLContains))+"%")
	}
	if f.DateFrom != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.DateTo.UTC())
	}
	return strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// sortColumn maps the validated sort field to a column name
func sortColumn(f domain.SortField) string {
	switch f {
	case domain.SortOverallScore:
		return "overall_score"
	case domain.SortURL:
		return "url"
	case domain.SortTitle:
		return "title"
	default:
		return "created_at"
	}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAudit(s scanner) (*domain.AuditRecord, error) {
	var a domain.AuditRecord
	var title sql.NullString
	var analysisJSON, pageJSON, serpJSON []byte

	if err := s.Scan(&a.ID, &a.UserID, &a.URL, &title, &a.OverallScore,
		&analysisJSON, &pageJSON, &serpJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Title = title.String

	if err := json.Unmarshal(analysisJSON, &a.Analysis); err != nil {
		return nil, err
	}
	if len(pageJSON) > 0 {
		if err := json.Unmarshal(pageJSON, &a.PageData); err != nil {
			return nil, fmt.Errorf("audit %s page_data: %w", a.ID, err)
		}
	}
	if len(serpJSON) > 0 {
		var serp domain.SerpData
		if err := json.Unmarshal(serpJSON, &serp); err != nil {
			return nil, fmt.Errorf("audit %s serp_data: %w", a.ID, err)
		}
		a.SerpData = &serp
	}
	return &a, nil
}

// --- Link opportunities ---

func (r *SQLiteRepository) SaveBatch(ctx context.Context, b *domain.OpportunityBatch) error {
	summaryJSON, err := json.Marshal(b.Summary)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO link_batches (id, user_id, page_url, summary, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.PageURL, summaryJSON, b.CreatedAt.UTC())
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO link_opportunities
		(batch_id, seq, target_page, target_url, anchor_text, context, position_percentage, relevance_score, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range b.Opportunities {
		if _, err := stmt.ExecContext(ctx, b.ID, o.ID, o.TargetPage, o.TargetURL, o.AnchorText, o.Context,
			o.PositionPercentage, o.RelevanceScore, string(o.Status), o.CreatedAt.UTC()); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetBatch(ctx context.Context, userID, batchID string) (*domain.OpportunityBatch, error) {
	b := domain.OpportunityBatch{Opportunities: []domain.LinkOpportunity{}}
	var pageURL sql.NullString
	var summaryJSON []byte

	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, page_url, summary, created_at FROM link_batches WHERE id = ? AND user_id = ?`,
		batchID, userID).Scan(&b.ID, &b.UserID, &pageURL, &summaryJSON, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.PageURL = pageURL.String
	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &b.Summary); err != nil {
			return nil, fmt.Errorf("batch %s summary: %w", b.ID, err)
		}
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+opportunityColumns+` FROM link_opportunities WHERE batch_id = ? ORDER BY seq ASC`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, err
		}
		b.Opportunities = append(b.Opportunities, *o)
	}
	return &b, rows.Err()
}

// SetOpportunityStatus changes only the status column. It returns nil, nil
// when the opportunity does not exist or its batch belongs to someone else.
func (r *SQLiteRepository) SetOpportunityStatus(ctx context.Context, userID, batchID string, id int, status domain.OpportunityStatus) (*domain.LinkOpportunity, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE link_opportunities SET status = ?
		WHERE batch_id = ? AND seq = ? AND batch_id IN (SELECT id FROM link_batches WHERE user_id = ?)`,
		string(status), batchID, id, userID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return nil, err
	}

	o, err := scanOpportunity(r.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM link_opportunities WHERE batch_id = ? AND seq = ?`, batchID, id))
	if err != nil {
		return nil, err
	}
	return o, nil
}

const opportunityColumns = `batch_id, seq, target_page, target_url, anchor_text, context, position_percentage, relevance_score, status, created_at`

func scanOpportunity(s scanner) (*domain.LinkOpportunity, error) {
	var o domain.LinkOpportunity
	var status string
	if err := s.Scan(&o.BatchID, &o.ID, &o.TargetPage, &o.TargetURL, &o.AnchorText, &o.Context,
		&o.PositionPercentage, &o.RelevanceScore, &status, &o.CreatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.OpportunityStatus(status)
	return &o, nil
}

// --- Deployments ---

func (r *SQLiteRepository) CreateDeployment(ctx context.Context, d *domain.Deployment) error {
	query := `INSERT INTO deployments (user_id, page_id, deployment_id, links_count, content_length_before, content_length_after, deployed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	res, err := r.db.ExecContext(ctx, query, d.UserID, d.PageID, d.DeploymentID, d.LinksCount,
		d.ContentLengthBefore, d.ContentLengthAfter, d.DeployedAt.UTC())
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	d.ID = id
	return nil
}

func (r *SQLiteRepository) ListDeployments(ctx context.Context, userID, pageID string, since time.Time) ([]domain.Deployment, error) {
	query := `SELECT id, user_id, page_id, deployment_id, links_count, content_length_before, content_length_after, deployed_at
			  FROM deployments WHERE user_id = ? AND deployed_at >= ?`
	args := []interface{}{userID, since.UTC()}

	if pageID != "" {
		query += " AND page_id = ?"
		args = append(args, pageID)
	}
	query += " ORDER BY deployed_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	deployments := []domain.Deployment{}
	for rows.Next() {
		var d domain.Deployment
		if err := rows.Scan(&d.ID, &d.UserID, &d.PageID, &d.DeploymentID, &d.LinksCount,
			&d.ContentLengthBefore, &d.ContentLengthAfter, &d.DeployedAt); err != nil {
			return nil, err
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

// --- Sessions ---

func (r *SQLiteRepository) RevokeSession(ctx context.Context, sessionID string, expiresAt time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Expired entries can never match a valid token again
	if _, err := tx.ExecContext(ctx, `DELETE FROM revoked_sessions WHERE expires_at < ?`, time.Now().UTC()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO revoked_sessions (session_id, expires_at) VALUES (?, ?)`,
		sessionID, expiresAt.UTC()); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) IsSessionRevoked(ctx context.Context, sessionID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_sessions WHERE session_id = ?`, sessionID).Scan(&count)
	return count > 0, err
}

// Ensure interface compliance
var (
	_ ports.AuditRepository       = (*SQLiteRepository)(nil)
	_ ports.OpportunityRepository = (*SQLiteRepository)(nil)
	_ ports.DeploymentRepository  = (*SQLiteRepository)(nil)
	_ ports.SessionStore          = (*SQLiteRepository)(nil)
)
