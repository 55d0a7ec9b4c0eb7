package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"

	"github.com/dabidkayl/metro-backend/internal/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrEventNotFound   = errors.New("event not found")
	ErrRequestNotFound = errors.New("organizer request not found")
	ErrEmailTaken      = errors.New("email already registered")

	// ErrInvalidState is returned when a terminal organizer request is
	// resolved again.
	ErrInvalidState = errors.New("request already resolved")

	// ErrPartialEnrollment and ErrPartialPromotion mark a multi-step unit
	// of work that could not complete as a whole. They require a
	// reconciliation pass, not a retry.
	ErrPartialEnrollment = errors.New("participation recorded but counter update failed")
	ErrPartialPromotion  = errors.New("request approved but role update failed")
)

// txTimeout bounds every transactional unit of work; a stuck database
// surfaces as a storage failure instead of a hung request.
const txTimeout = 5 * time.Second

type Repository interface {
	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetAllUsers(ctx context.Context) ([]model.User, error)

	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetEventByID(ctx context.Context, id int64) (*model.Event, error)
	GetAllEvents(ctx context.Context) ([]model.Event, error)
	GetParticipationsByEventID(ctx context.Context, eventID int64) ([]model.Participation, error)
	CountParticipations(ctx context.Context, eventID int64) (int, error)

	JoinEventTx(ctx context.Context, p *model.Participation) (int64, bool, error)

	CreatePendingRequest(ctx context.Context, userID int64) (int64, bool, error)
	GetRequestByID(ctx context.Context, id int64) (*model.OrganizerRequest, error)
	GetAllRequests(ctx context.Context) ([]model.OrganizerRequest, error)
	ResolveRequestTx(ctx context.Context, requestID int64, newStatus string) (*model.OrganizerRequest, error)

	MigrateUp(migrationsDir string) error
	MigrateDown(migrationsDir string) error
}

type repository struct {
	db  *dbpg.DB
	log *zerolog.Logger
}

func NewRepository(db *dbpg.DB, log *zerolog.Logger) (Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if err := db.Master.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}
	return &repository{db: db, log: log}, nil
}

func (r *repository) MigrateUp(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := ioutil.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations applied successfully from %s", migrationsDir)
	return nil
}

func (r *repository) MigrateDown(migrationsDir string) error {
	files, err := filepath.Glob(filepath.Join(migrationsDir, "*.down.sql"))
	if err != nil {
		return fmt.Errorf("failed to read rollback files: %w", err)
	}

	for _, file := range files {
		sqlBytes, err := ioutil.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read rollback file %s: %w", file, err)
		}

		if _, err := r.db.ExecContext(context.Background(), string(sqlBytes)); err != nil {
			return fmt.Errorf("failed to rollback migration %s: %w", file, err)
		}
	}

	r.log.Info().Msgf("Migrations rolled back successfully from %s", migrationsDir)
	return nil
}

func (r *repository) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	query := `
		INSERT INTO users (email, password_hash, name, role, avatar)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		u.Email, u.PasswordHash, u.Name, u.Role, u.Avatar,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrEmailTaken
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (r *repository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, name, role, avatar, created_at
		FROM users WHERE email = $1
	`
	row := r.db.QueryRowContext(ctx, query, email)

	var u model.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Avatar, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

func (r *repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `
		SELECT id, email, password_hash, name, role, avatar, created_at
		FROM users WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var u model.User
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Avatar, &u.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &u, nil
}

func (r *repository) GetAllUsers(ctx context.Context) ([]model.User, error) {
	query := `
		SELECT id, email, password_hash, name, role, avatar, created_at
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.Avatar, &u.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (name, location, description, date, type, organizer_id, image, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		e.Name, e.Location, e.Description, e.Date, e.Type, e.OrganizerID, e.Image, e.Status,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return id, nil
}

func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `
		SELECT id, name, location, description, date, type, organizer_id,
		       image, status, participant_count, created_at, updated_at
		FROM events WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var e model.Event
	if err := row.Scan(
		&e.ID, &e.Name, &e.Location, &e.Description, &e.Date, &e.Type, &e.OrganizerID,
		&e.Image, &e.Status, &e.ParticipantCount, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by id: %w", err)
	}
	return &e, nil
}

func (r *repository) GetAllEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT id, name, location, description, date, type, organizer_id,
		       image, status, participant_count, created_at, updated_at
		FROM events
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Location, &e.Description, &e.Date, &e.Type, &e.OrganizerID,
			&e.Image, &e.Status, &e.ParticipantCount, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, nil
}

func (r *repository) GetParticipationsByEventID(ctx context.Context, eventID int64) ([]model.Participation, error) {
	query := `
		SELECT id, user_id, event_id, full_name, email, phone, age, gender, created_at
		FROM participations
		WHERE event_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participations: %w", err)
	}
	defer rows.Close()

	var parts []model.Participation
	for rows.Next() {
		var p model.Participation
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.EventID, &p.FullName, &p.Email,
			&p.Phone, &p.Age, &p.Gender, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		parts = append(parts, p)
	}

	return parts, nil
}

func (r *repository) CountParticipations(ctx context.Context, eventID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM participations
		WHERE event_id = $1
	`

	var count int
	if err := r.db.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}

	return count, nil
}

// JoinEventTx inserts a participation row and bumps the event's
// participant counter in one transaction. The second return value is
// true when the user was already a participant; nothing is mutated on
// that path. Uniqueness rests on the (user_id, event_id) constraint,
// not on a check-then-insert in application code.
func (r *repository) JoinEventTx(ctx context.Context, p *model.Participation) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var eventID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id
		FROM events
		WHERE id = $1
		FOR UPDATE
	`, p.EventID).Scan(&eventID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, ErrEventNotFound
		}
		return 0, false, fmt.Errorf("failed to lock event: %w", err)
	}

	var userID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM users WHERE id = $1
	`, p.UserID).Scan(&userID)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, ErrUserNotFound
		}
		return 0, false, fmt.Errorf("failed to check user: %w", err)
	}

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO participations (user_id, event_id, full_name, email, phone, age, gender, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING id
	`, p.UserID, p.EventID, p.FullName, p.Email, p.Phone, p.Age, p.Gender).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		_ = tx.Rollback()
		return 0, true, nil
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, false, fmt.Errorf("failed to create participation: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE events
		SET participant_count = participant_count + 1, updated_at = NOW()
		WHERE id = $1
	`, p.EventID); err != nil {
		_ = tx.Rollback()
		r.log.Error().Err(err).
			Int("event_id", p.EventID).
			Int("user_id", p.UserID).
			Msg("counter update failed after participation insert, transaction rolled back")
		return 0, false, ErrPartialEnrollment
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, false, nil
}

// CreatePendingRequest inserts a Pending organizer request. The second
// return value is true when the user already has a Pending request; the
// partial unique index on (user_id) WHERE status = 'Pending' backs the
// at-most-one-Pending invariant under concurrency.
func (r *repository) CreatePendingRequest(ctx context.Context, userID int64) (int64, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	var exists int64
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE id = $1
	`, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, ErrUserNotFound
		}
		return 0, false, fmt.Errorf("failed to check user: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO organizer_requests (user_id, status, request_date)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) WHERE status = 'Pending' DO NOTHING
		RETURNING id
	`, userID, model.RequestStatusPending).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, true, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to create organizer request: %w", err)
	}

	return id, false, nil
}

func (r *repository) GetRequestByID(ctx context.Context, id int64) (*model.OrganizerRequest, error) {
	query := `
		SELECT id, user_id, status, request_date, date_reviewed
		FROM organizer_requests
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var req model.OrganizerRequest
	if err := row.Scan(
		&req.ID, &req.UserID, &req.Status, &req.RequestDate, &req.DateReviewed,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get organizer request: %w", err)
	}
	return &req, nil
}

func (r *repository) GetAllRequests(ctx context.Context) ([]model.OrganizerRequest, error) {
	query := `
		SELECT id, user_id, status, request_date, date_reviewed
		FROM organizer_requests
		ORDER BY request_date DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get organizer requests: %w", err)
	}
	defer rows.Close()

	var reqs []model.OrganizerRequest
	for rows.Next() {
		var req model.OrganizerRequest
		if err := rows.Scan(
			&req.ID, &req.UserID, &req.Status, &req.RequestDate, &req.DateReviewed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan organizer request: %w", err)
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}

// ResolveRequestTx moves a Pending request into a terminal status and,
// on approval, promotes the owning user to organizer. Both writes run
// in one transaction with the request row locked, so the request can
// never commit Approved while the role update is lost.
func (r *repository) ResolveRequestTx(ctx context.Context, requestID int64, newStatus string) (*model.OrganizerRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, txTimeout)
	defer cancel()

	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	var req model.OrganizerRequest
	err = tx.QueryRowContext(ctx, `
		SELECT id, user_id, status, request_date, date_reviewed
		FROM organizer_requests
		WHERE id = $1
		FOR UPDATE
	`, requestID).Scan(&req.ID, &req.UserID, &req.Status, &req.RequestDate, &req.DateReviewed)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to lock organizer request: %w", err)
	}

	if model.RequestStatusTerminal(req.Status) {
		_ = tx.Rollback()
		return nil, ErrInvalidState
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE organizer_requests
		SET status = $1, date_reviewed = $2
		WHERE id = $3
	`, newStatus, now, requestID); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}

	if newStatus == model.RequestStatusApproved {
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET role = $1 WHERE id = $2
		`, model.RoleOrganizer, req.UserID); err != nil {
			_ = tx.Rollback()
			r.log.Error().Err(err).
				Int("request_id", req.ID).
				Int("user_id", req.UserID).
				Msg("role update failed after request approval, transaction rolled back")
			return nil, ErrPartialPromotion
		}
	}

	req.Status = newStatus
	req.DateReviewed = &now

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &req, nil
}
