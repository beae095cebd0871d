// Package store implements the persistence layer of spec.md §4.9 and
// §6: Call, Lead, and Transcript records backed by PostgreSQL via
// jackc/pgx/v5. Adapted from the teacher's CallInitiator database
// wiring in pkg/telephony/call-initiator.go — the pgxpool handle and
// the insert/update-session shape are kept, repurposed from SignalWire-specific CallSession
// fields to the generic Call/Lead/Transcript schema this spec needs.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/errkind"
	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

// CallStatus is the closed set of call outcomes stored on a Call row,
// written in lowercase snake_case rather than the teacher's
// differently-cased SignalWire status enum (SPEC_FULL.md §14). The set
// is the six constants below; there are no initiated, ringing, canceled
// or busy values, and the status webhook stores carrier busy and
// canceled callbacks as failed.
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
	CallStatusVoicemail  CallStatus = "voicemail"
)

// Lead is the minimal prospect record the prompt builder and dashboard
// read (spec.md §4.3 contract 2).
type Lead struct {
	ID       uuid.UUID
	Name     string
	Company  string
	Title    string
	Industry string
	Phone    string
	Context  string
}

// Call is one outbound call's persisted state.
type Call struct {
	ID            uuid.UUID
	LeadID        uuid.UUID
	ProviderSID   string
	Status        CallStatus
	CurrentState  engine.SalesState
	StartedAt     time.Time
	EndedAt       *time.Time
	BANT          engine.BANT
	FinalTier     engine.Tier
	RecordingURL  string
}

// TranscriptLine is one turn in the call transcript.
type TranscriptLine struct {
	CallID    uuid.UUID
	Seq       int
	Speaker   string // "prospect" or "agent"
	Text      string
	State     engine.SalesState
	CreatedAt time.Time
}

// Store wraps a pgxpool.Pool with the operations the engine needs.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL using pgx's pooled driver, matching the
// teacher's pgxpool.Pool field on CallInitiator.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// GetLead loads a lead by ID for prompt construction.
func (s *Store) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, company, title, industry, phone, context FROM leads WHERE id = $1`, id)

	var l Lead
	if err := row.Scan(&l.ID, &l.Name, &l.Company, &l.Title, &l.Industry, &l.Phone, &l.Context); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errkind.New(errkind.BadInput, "lead not found")
		}
		return nil, errkind.Wrap(errkind.Internal, "query lead", err)
	}
	return &l, nil
}

// CreateLead inserts a new lead record for an admin-initiated dial
// request (spec.md §4.3 contract 2's prospect record, populated here
// rather than by a pre-existing CRM import).
func (s *Store) CreateLead(ctx context.Context, l Lead) (*Lead, error) {
	l.ID = uuid.New()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, name, company, title, industry, phone, context)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		l.ID, l.Name, l.Company, l.Title, l.Industry, l.Phone, l.Context)
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, "insert lead", err)
	}
	return &l, nil
}

// GetCall loads a call row by ID, used by TurnHandler to recover
// LeadID and CurrentState after a process restart with no in-memory
// ConversationState (spec.md §4.12 step 1).
func (s *Store) GetCall(ctx context.Context, id uuid.UUID) (*Call, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, lead_id, status, current_state, started_at, ended_at,
		        budget, authority, need, timeline, final_tier, recording_url
		 FROM calls WHERE id = $1`, id)

	var c Call
	var state int
	var finalTier string
	if err := row.Scan(&c.ID, &c.LeadID, &c.Status, &state, &c.StartedAt, &c.EndedAt,
		&c.BANT.Budget, &c.BANT.Authority, &c.BANT.Need, &c.BANT.Timeline, &finalTier, &c.RecordingURL); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errkind.New(errkind.StateViolation, "unknown call id")
		}
		return nil, errkind.Wrap(errkind.Internal, "query call", err)
	}
	c.CurrentState = engine.SalesState(state)
	c.FinalTier = engine.Tier(finalTier)
	return &c, nil
}

// CreateCall inserts a new call row in the queued state.
func (s *Store) CreateCall(ctx context.Context, leadID uuid.UUID) (*Call, error) {
	c := &Call{
		ID:           uuid.New(),
		LeadID:       leadID,
		Status:       CallStatusQueued,
		CurrentState: engine.S0,
		StartedAt:    time.Now(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO calls (id, lead_id, status, current_state, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.LeadID, c.Status, int(c.CurrentState), c.StartedAt)
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, "insert call", err)
	}
	return c, nil
}

// UpdateState persists the engine's current state and BANT snapshot
// after each turn. TurnHandler calls it from a background goroutine, so
// the write may land after the next turn has been accepted.
func (s *Store) UpdateState(ctx context.Context, callID uuid.UUID, state engine.SalesState, bant engine.BANT) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE calls SET current_state = $1, budget = $2, authority = $3, need = $4, timeline = $5
		 WHERE id = $6`,
		int(state), bant.Budget, bant.Authority, bant.Need, bant.Timeline, callID)
	if err != nil {
		obslog.Err("store", err).Str("call_id", callID.String()).Msg("update state failed")
		return errkind.Wrap(errkind.Internal, "update call state", err)
	}
	return nil
}

// SetRecordingURL records the carrier-hosted recording URL once the
// recording-ready callback arrives (spec.md §6.1).
func (s *Store) SetRecordingURL(ctx context.Context, callID uuid.UUID, url string) error {
	_, err := s.pool.Exec(ctx, `UPDATE calls SET recording_url = $1 WHERE id = $2`, url, callID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, "set recording url", err)
	}
	return nil
}

// Finish marks a call ended with its final status and tier.
func (s *Store) Finish(ctx context.Context, callID uuid.UUID, status CallStatus, tier engine.Tier) error {
	now := time.Now()
	_, err := s.pool.Exec(ctx,
		`UPDATE calls SET status = $1, final_tier = $2, ended_at = $3 WHERE id = $4`,
		status, string(tier), now, callID)
	if err != nil {
		return errkind.Wrap(errkind.Internal, "finish call", err)
	}
	return nil
}

// AppendTranscript records one turn of the call transcript.
func (s *Store) AppendTranscript(ctx context.Context, line TranscriptLine) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transcript_lines (call_id, seq, speaker, text, state, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		line.CallID, line.Seq, line.Speaker, line.Text, int(line.State), line.CreatedAt)
	if err != nil {
		return errkind.Wrap(errkind.Internal, "append transcript", err)
	}
	return nil
}

// Transcript loads the full transcript for a call in turn order, used
// by the operator transcript endpoint. A call runtime rebuilt after a
// process restart does not reload it, so its prompt tail starts empty.
func (s *Store) Transcript(ctx context.Context, callID uuid.UUID) ([]TranscriptLine, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT call_id, seq, speaker, text, state, created_at FROM transcript_lines
		 WHERE call_id = $1 ORDER BY seq ASC`, callID)
	if err != nil {
		return nil, errkind.Wrap(errkind.Internal, "query transcript", err)
	}
	defer rows.Close()

	var lines []TranscriptLine
	for rows.Next() {
		var l TranscriptLine
		var state int
		if err := rows.Scan(&l.CallID, &l.Seq, &l.Speaker, &l.Text, &state, &l.CreatedAt); err != nil {
			return nil, errkind.Wrap(errkind.Internal, "scan transcript row", err)
		}
		l.State = engine.SalesState(state)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
