package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/heapsnap-analysis/pkg/telemetry"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// CatalogDBConfig configures the optional mysql/postgres job-bookkeeping database.
// The catalog is separate from the per-snapshot output store (see schema.go /
// Store): it tracks which heap snapshots have been ingested and where their
// output store lives, so a fleet of ingestion runs can share one bookkeeping
// database while each snapshot still gets its own sqlite output.
type CatalogDBConfig struct {
	Type     string `mapstructure:"type"` // postgres or mysql
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	MaxConns int    `mapstructure:"max_conns"`
}

// CatalogDBType represents the catalog database type.
type CatalogDBType string

const (
	CatalogDBTypePostgres CatalogDBType = "postgres"
	CatalogDBTypeMySQL    CatalogDBType = "mysql"
)

// NewCatalogDB opens a GORM connection to the catalog database based on configuration.
func NewCatalogDB(cfg *CatalogDBConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch CatalogDBType(cfg.Type) {
	case CatalogDBTypePostgres, CatalogDBType("postgresql"):
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database,
		)
		dialector = postgres.Open(dsn)
	case CatalogDBTypeMySQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		)
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported catalog database type: %s", cfg.Type)
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if telemetry.Enabled() {
		if err := db.Use(tracing.NewPlugin()); err != nil {
			return nil, fmt.Errorf("failed to enable telemetry: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 10
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns / 2)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	if err := db.AutoMigrate(&IngestionRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	return db, nil
}

// IngestionRecord is one row of catalog bookkeeping: a single heap-snapshot
// ingestion run and where its output store and its source snapshot file live.
type IngestionRecord struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	SnapshotURI  string    `gorm:"column:snapshot_uri;type:text;not null"`
	StoreDSN     string    `gorm:"column:store_dsn;type:text;not null"`
	NodeCount    int       `gorm:"column:node_count;type:bigint"`
	EdgeCount    int       `gorm:"column:edge_count;type:bigint"`
	DurationMS   int64     `gorm:"column:duration_ms;type:bigint"`
	Status       string    `gorm:"column:status;type:varchar(32);not null"`
	ErrorMessage string    `gorm:"column:error_message;type:text"`
	StartedAt    time.Time `gorm:"column:started_at"`
	FinishedAt   time.Time `gorm:"column:finished_at"`
}

// TableName pins the GORM table name.
func (IngestionRecord) TableName() string {
	return "ingestion_record"
}

// Catalog wraps a GORM handle to the bookkeeping database.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog wraps an already-opened GORM database as a Catalog.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Record inserts a completed (or failed) ingestion's bookkeeping row.
func (c *Catalog) Record(ctx context.Context, rec *IngestionRecord) error {
	return c.db.WithContext(ctx).Create(rec).Error
}

// RecentBySnapshot returns the most recent ingestion records for a snapshot URI, newest first.
func (c *Catalog) RecentBySnapshot(ctx context.Context, snapshotURI string, limit int) ([]IngestionRecord, error) {
	var recs []IngestionRecord
	err := c.db.WithContext(ctx).
		Where("snapshot_uri = ?", snapshotURI).
		Order("started_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

// Close closes the underlying connection.
func (c *Catalog) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// HealthCheck verifies the catalog connection is still alive.
func (c *Catalog) HealthCheck(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// DB returns the underlying sql.DB connection.
func (c *Catalog) DB() *sql.DB {
	sqlDB, _ := c.db.DB()
	return sqlDB
}

// GormDB returns the underlying GORM DB instance.
func (c *Catalog) GormDB() *gorm.DB {
	return c.db
}
