package quota

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Entry is one tenant's monthly quota for one service.
type Entry struct {
	Tenant    string
	Service   string
	Monthly   float64
	UpdatedAt time.Time
}

// PoolStats is a snapshot of the store's connection pool.
type PoolStats struct {
	Open  int
	InUse int
	Idle  int
}

// Store persists per-tenant monthly quotas in SQLite. The database runs in
// WAL mode with a single writer connection; a background goroutine
// checkpoints the WAL periodically.
type Store struct {
	db        *sql.DB
	path      string
	done      chan struct{}
	mu        sync.RWMutex
	closeOnce sync.Once

	upsertStmt *sql.Stmt
	getStmt    *sql.Stmt
	listStmt   *sql.Stmt
}

// Options configures a Store.
type Options struct {
	// Path is the SQLite database file path.
	Path string

	// CheckpointInterval is how often to checkpoint the WAL.
	// Default: 5 minutes.
	CheckpointInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// Open opens or creates the quota database at path with default settings.
func Open(path string) (*Store, error) {
	return OpenWithOptions(Options{Path: path})
}

// OpenWithOptions opens or creates the quota database with custom options.
func OpenWithOptions(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if opts.CheckpointInterval == 0 {
		opts.CheckpointInterval = 5 * time.Minute
	}
	if opts.BusyTimeout == 0 {
		opts.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_synchronous=NORMAL",
		opts.Path, int(opts.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:   db,
		path: opts.Path,
		done: make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	go s.checkpointLoop(opts.CheckpointInterval)

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenant_quotas (
		tenant TEXT NOT NULL,
		service TEXT NOT NULL,
		monthly REAL NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (tenant, service)
	);

	CREATE INDEX IF NOT EXISTS idx_quota_tenant ON tenant_quotas(tenant);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) prepareStatements() error {
	var err error

	s.upsertStmt, err = s.db.Prepare(`
		INSERT INTO tenant_quotas (tenant, service, monthly, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (tenant, service) DO UPDATE SET
			monthly = excluded.monthly,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT monthly, updated_at
		FROM tenant_quotas
		WHERE tenant = ? AND service = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT tenant, service, monthly, updated_at
		FROM tenant_quotas
		ORDER BY tenant, service
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	return nil
}

// Set upserts one tenant's quota for a service.
func (s *Store) Set(ctx context.Context, tenant, service string, monthly float64) error {
	if tenant == "" {
		return fmt.Errorf("tenant cannot be empty")
	}
	if service == "" {
		return fmt.Errorf("service cannot be empty")
	}
	if monthly < 0 {
		return fmt.Errorf("monthly quota cannot be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.upsertStmt.ExecContext(ctx, tenant, service, monthly, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save quota: %w", err)
	}
	return nil
}

// Get returns the quota entry for one tenant and service, or nil when none
// is stored.
func (s *Store) Get(ctx context.Context, tenant, service string) (*Entry, error) {
	if tenant == "" {
		return nil, fmt.Errorf("tenant cannot be empty")
	}
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		monthly   float64
		updatedAt int64
	)
	err := s.getStmt.QueryRowContext(ctx, tenant, service).Scan(&monthly, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load quota: %w", err)
	}

	return &Entry{
		Tenant:    tenant,
		Service:   service,
		Monthly:   monthly,
		UpdatedAt: time.Unix(updatedAt, 0),
	}, nil
}

// All returns every stored quota entry, ordered by tenant then service.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.listStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotas: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var updatedAt int64
		if err := rows.Scan(&e.Tenant, &e.Service, &e.Monthly, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		e.UpdatedAt = time.Unix(updatedAt, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return entries, nil
}

// Seed inserts default quotas for every tenant and service pair that has no
// stored entry yet. Existing entries are left untouched.
func (s *Store) Seed(ctx context.Context, tenants []string, defaults map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().Unix()
	for _, tenant := range tenants {
		for service, monthly := range defaults {
			_, err := s.db.ExecContext(ctx, `
				INSERT INTO tenant_quotas (tenant, service, monthly, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (tenant, service) DO NOTHING
			`, tenant, service, monthly, now)
			if err != nil {
				return fmt.Errorf("failed to seed quota for %s/%s: %w", tenant, service, err)
			}
		}
	}
	return nil
}

// Stats reports the current connection pool counts.
func (s *Store) Stats() PoolStats {
	st := s.db.Stats()
	return PoolStats{
		Open:  st.OpenConnections,
		InUse: st.InUse,
		Idle:  st.Idle,
	}
}

// Close is idempotent and safe to call multiple times.
func (s *Store) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		close(s.done)

		if s.upsertStmt != nil {
			s.upsertStmt.Close()
		}
		if s.getStmt != nil {
			s.getStmt.Close()
		}
		if s.listStmt != nil {
			s.listStmt.Close()
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}

func (s *Store) checkpointLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)")
		case <-s.done:
			return
		}
	}
}
