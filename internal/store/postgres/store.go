package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

type Store struct {
	pool          *pgxpool.Pool
	audits        *AuditRepo
	standards     *StandardRepo
	responseTypes *ResponseTypeRepo
	sessions      *SessionRepo
	items         *SessionItemRepo
	responses     *ResponseRepo
	occurrences   *OccurrenceRepo
	scoring       *ScoringRepo
	activity      *ActivityRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:          pool,
		audits:        NewAuditRepo(pool),
		standards:     NewStandardRepo(pool),
		responseTypes: NewResponseTypeRepo(pool),
		sessions:      NewSessionRepo(pool),
		items:         NewSessionItemRepo(pool),
		responses:     NewResponseRepo(pool),
		occurrences:   NewOccurrenceRepo(pool),
		scoring:       NewScoringRepo(pool),
		activity:      NewActivityRepo(pool),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres.Ping: %w", err)
	}
	return nil
}

// Pool exposes the connection pool for migrations.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) Audits() domain.AuditRepository               { return s.audits }
func (s *Store) Standards() domain.StandardRepository         { return s.standards }
func (s *Store) ResponseTypes() domain.ResponseTypeRepository { return s.responseTypes }
func (s *Store) Sessions() domain.SessionRepository           { return s.sessions }
func (s *Store) SessionItems() domain.SessionItemRepository   { return s.items }
func (s *Store) Responses() domain.ResponseRepository         { return s.responses }
func (s *Store) Occurrences() domain.OccurrenceRepository     { return s.occurrences }
func (s *Store) Scoring() domain.ScoringRepository            { return s.scoring }
func (s *Store) Activity() domain.ActivityRepository          { return s.activity }

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// wrapWriteErr maps constraint violations to domain errors.
func wrapWriteErr(caller string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %s: %w", caller, pgErr.ConstraintName, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", caller, err)
}
