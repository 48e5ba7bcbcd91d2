// Package postgres is the production implementation of the ceremony
// engine's persistence contract (spec §4.5, out of scope per spec §1: "the
// SQL persistence backend (only its contract is specified)"), backed by
// gorm and PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rainbow-dataspace/authority/internal/core/model"
	"github.com/rainbow-dataspace/authority/internal/core/store"
	"github.com/rainbow-dataspace/authority/pkg/logger"
)

// Config names the Postgres connection parameters (spec §6 "DB_* environment
// variables").
type Config struct {
	URL      string
	Port     int
	User     string
	Password string
	Database string
}

func (c Config) dsn() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.URL, c.Port, c.User, c.Password, c.Database,
	)
}

// Service is the gorm-backed Store (spec §4.5 "Persistence Contract").
type Service struct {
	db  *gorm.DB
	log *logger.Log

	requests      *requestsRepo
	interactions  *interactionsRepo
	verifications *verificationsRepo
	issuings      *issuingsRepo
	minions       *minionsRepo
}

var _ store.Store = (*Service)(nil)

// New opens the database connection and wires the five entity repos.
func New(ctx context.Context, cfg Config, log *logger.Log) (*Service, error) {
	gdb, err := gorm.Open(postgres.Open(cfg.dsn()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, model.WrapError(model.KindDatabase, "failed to connect to postgres", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, model.WrapError(model.KindDatabase, "failed to access underlying sql.DB", err)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	s := &Service{db: gdb, log: log}
	s.requests = &requestsRepo{db: gdb}
	s.interactions = &interactionsRepo{db: gdb}
	s.verifications = &verificationsRepo{db: gdb}
	s.issuings = &issuingsRepo{db: gdb}
	s.minions = &minionsRepo{db: gdb}
	return s, nil
}

// Setup runs auto-migrations for the five ceremony tables (the `setup`
// CLI subcommand, spec §6 "Subcommands").
func (s *Service) Setup(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&model.Request{},
		&model.Interaction{},
		&model.Verification{},
		&model.Issuing{},
		&model.Minion{},
	)
}

func (s *Service) Requests() store.Requests           { return s.requests }
func (s *Service) Interactions() store.Interactions   { return s.interactions }
func (s *Service) Verifications() store.Verifications { return s.verifications }
func (s *Service) Issuings() store.Issuings           { return s.issuings }
func (s *Service) Minions() store.Minions             { return s.minions }

// Close releases the pooled database connection.
func (s *Service) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrapGormErr(err error, missingKey string) error {
	if err == nil {
		return nil
	}
	if err == gorm.ErrRecordNotFound {
		return model.NewErrorDetail(model.KindMissingResource, "no matching record", missingKey)
	}
	return model.WrapError(model.KindDatabase, "database operation failed", err)
}
