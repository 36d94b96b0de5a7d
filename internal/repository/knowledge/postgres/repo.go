// Package postgres stores knowledge entries in PostgreSQL through gorm.
package postgres

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kailas-cloud/triage/internal/domain/knowledge"
	"github.com/kailas-cloud/triage/internal/domain/search/field"
	"github.com/kailas-cloud/triage/internal/domain/search/query"
	repo "github.com/kailas-cloud/triage/internal/repository/knowledge"
)

const insertBatchSize = 100

// Repo implements the knowledge store over gorm.
type Repo struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema. gorm warnings and slow
// queries are logged through logger.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*Repo, error) {
	return open(ctx, postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.New(zap.NewStdLog(logger.Named("gorm")), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
}

// open releases the connection pool when the schema cannot be migrated.
func open(ctx context.Context, dialector gorm.Dialector, cfg *gorm.Config) (*Repo, error) {
	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	r := New(db)
	if err := r.Migrate(ctx); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return r, nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// Migrate creates or updates the knowledge table.
func (r *Repo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&entryRow{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Insert upserts entries by id.
func (r *Repo) Insert(ctx context.Context, entries []knowledge.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]entryRow, len(entries))
	for i, e := range entries {
		rows[i] = toRow(e)
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		CreateInBatches(rows, insertBatchSize).Error
	if err != nil {
		return fmt.Errorf("insert entries: %w", err)
	}
	return nil
}

// FindPublished returns published entries matching q, newest first.
func (r *Repo) FindPublished(ctx context.Context, q query.Query) ([]knowledge.Entry, error) {
	var rows []entryRow
	if err := r.findQuery(ctx, q).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find published: %w", err)
	}

	out := make([]knowledge.Entry, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out, nil
}

func (r *Repo) findQuery(ctx context.Context, q query.Query) *gorm.DB {
	where, args := repo.Where(q, repo.Lower)
	tx := r.db.WithContext(ctx).
		Model(&entryRow{}).
		Where(where, args...).
		Order(repo.OrderNatural)
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	return tx
}

// Suggest returns distinct values of f containing partial, ascending.
func (r *Repo) Suggest(ctx context.Context, f field.Field, partial string, limit int) ([]string, error) {
	out := []string{}
	if err := r.suggestQuery(ctx, f, partial, limit).Pluck(repo.Column(f), &out).Error; err != nil {
		return nil, fmt.Errorf("suggest %s: %w", f, err)
	}
	return out, nil
}

func (r *Repo) suggestQuery(ctx context.Context, f field.Field, partial string, limit int) *gorm.DB {
	col := repo.Column(f)
	where, args := repo.SuggestWhere(col, partial, repo.Lower)
	tx := r.db.WithContext(ctx).
		Model(&entryRow{}).
		Distinct(col).
		Where(where, args...).
		Order(col + " ASC")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return tx
}

// Ping checks the database connection.
func (r *Repo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (r *Repo) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
