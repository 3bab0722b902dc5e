// Package memory is a process-local implementation of the domain
// repositories. It backs tests and AUDITD_STORE=memory; all data is lost on
// exit.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Web-Star-Studio/daton-esg-insight-sub004/internal/domain"
)

// Store keeps every table behind one mutex, which makes each repository call
// atomic with respect to all others.
type Store struct {
	mu sync.Mutex

	audits         map[uuid.UUID]*domain.Audit
	auditStandards map[uuid.UUID]map[uuid.UUID]struct{}
	standards      map[uuid.UUID]*domain.Standard
	standardItems  map[uuid.UUID]*domain.StandardItem
	responseTypes  map[uuid.UUID]*domain.ResponseType
	sessions       map[uuid.UUID]*domain.Session
	items          map[uuid.UUID]*domain.SessionItem
	responses      map[uuid.UUID]*domain.Response // keyed by session item id
	occurrences    map[uuid.UUID]*domain.Occurrence
	occurrenceSeq  map[uuid.UUID]int
	configs        map[uuid.UUID]*domain.ScoringConfig
	results        map[uuid.UUID]*domain.ScoringResult
	activity       []*domain.ActivityEntry

	auditRepo        *AuditRepo
	standardRepo     *StandardRepo
	responseTypeRepo *ResponseTypeRepo
	sessionRepo      *SessionRepo
	itemRepo         *SessionItemRepo
	responseRepo     *ResponseRepo
	occurrenceRepo   *OccurrenceRepo
	scoringRepo      *ScoringRepo
	activityRepo     *ActivityRepo
}

func New() *Store {
	s := &Store{
		audits:         make(map[uuid.UUID]*domain.Audit),
		auditStandards: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		standards:      make(map[uuid.UUID]*domain.Standard),
		standardItems:  make(map[uuid.UUID]*domain.StandardItem),
		responseTypes:  make(map[uuid.UUID]*domain.ResponseType),
		sessions:       make(map[uuid.UUID]*domain.Session),
		items:          make(map[uuid.UUID]*domain.SessionItem),
		responses:      make(map[uuid.UUID]*domain.Response),
		occurrences:    make(map[uuid.UUID]*domain.Occurrence),
		occurrenceSeq:  make(map[uuid.UUID]int),
		configs:        make(map[uuid.UUID]*domain.ScoringConfig),
		results:        make(map[uuid.UUID]*domain.ScoringResult),
	}
	s.auditRepo = &AuditRepo{s: s}
	s.standardRepo = &StandardRepo{s: s}
	s.responseTypeRepo = &ResponseTypeRepo{s: s}
	s.sessionRepo = &SessionRepo{s: s}
	s.itemRepo = &SessionItemRepo{s: s}
	s.responseRepo = &ResponseRepo{s: s}
	s.occurrenceRepo = &OccurrenceRepo{s: s}
	s.scoringRepo = &ScoringRepo{s: s}
	s.activityRepo = &ActivityRepo{s: s}
	return s
}

// Close is a no-op; it lets Store stand in wherever a closable store is expected.
func (s *Store) Close() {}

// Ping always succeeds; the store lives in process.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Audits() domain.AuditRepository               { return s.auditRepo }
func (s *Store) Standards() domain.StandardRepository         { return s.standardRepo }
func (s *Store) ResponseTypes() domain.ResponseTypeRepository { return s.responseTypeRepo }
func (s *Store) Sessions() domain.SessionRepository           { return s.sessionRepo }
func (s *Store) SessionItems() domain.SessionItemRepository   { return s.itemRepo }
func (s *Store) Responses() domain.ResponseRepository         { return s.responseRepo }
func (s *Store) Occurrences() domain.OccurrenceRepository     { return s.occurrenceRepo }
func (s *Store) Scoring() domain.ScoringRepository            { return s.scoringRepo }
func (s *Store) Activity() domain.ActivityRepository          { return s.activityRepo }

// deleteSessionLocked removes a session, its items and their responses, and
// unlinks occurrences that pointed at them.
func (s *Store) deleteSessionLocked(sessionID uuid.UUID) {
	for id, it := range s.items {
		if it.SessionID != sessionID {
			continue
		}
		if r, ok := s.responses[id]; ok {
			s.unlinkResponseLocked(r.ID)
			delete(s.responses, id)
		}
		for _, o := range s.occurrences {
			if o.SessionItemID != nil && *o.SessionItemID == id {
				o.SessionItemID = nil
			}
		}
		delete(s.items, id)
	}
	for _, o := range s.occurrences {
		if o.SessionID != nil && *o.SessionID == sessionID {
			o.SessionID = nil
		}
	}
	delete(s.sessions, sessionID)
}

func (s *Store) unlinkResponseLocked(responseID uuid.UUID) {
	for _, o := range s.occurrences {
		if o.ResponseID != nil && *o.ResponseID == responseID {
			o.ResponseID = nil
		}
	}
}
