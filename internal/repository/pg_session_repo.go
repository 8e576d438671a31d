package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"resume-agent/internal/domain"
)

// pgDB es la parte de *pgxpool.Pool que usa el repositorio.
type pgDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgSessionRepository persiste sesiones en resume_sessions y su transcript en resume_messages.
type PgSessionRepository struct {
	pool pgDB
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) GetOrCreate(ctx context.Context, id string) (domain.Session, error) {
	const query = `
		INSERT INTO resume_sessions (id, created_at, updated_at)
		VALUES ($1, $2, $2)
		ON CONFLICT (id) DO NOTHING
	`
	now := time.Now().UTC()
	if _, err := r.pool.Exec(ctx, query, id, now); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return r.Get(ctx, id)
}

func (r *PgSessionRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	const sessionQuery = `
		SELECT id, resume_text, corrections, user_info, created_at
		FROM resume_sessions
		WHERE id = $1
	`
	var session domain.Session
	err := r.pool.QueryRow(ctx, sessionQuery, id).Scan(
		&session.ID,
		&session.ResumeText,
		&session.Corrections,
		&session.UserInfo,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	session.CreatedAt = session.CreatedAt.UTC()

	const messagesQuery = `
		SELECT role, content, created_at
		FROM resume_messages
		WHERE session_id = $1
		ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, messagesQuery, id)
	if err != nil {
		return domain.Session{}, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var msg domain.Message
		if err := rows.Scan(&role, &msg.Content, &msg.Timestamp); err != nil {
			return domain.Session{}, err
		}
		msg.Role = domain.MessageRole(role)
		msg.Timestamp = msg.Timestamp.UTC()
		session.Messages = append(session.Messages, msg)
	}
	if err := rows.Err(); err != nil {
		return domain.Session{}, err
	}
	return normalizeSession(session), nil
}

// Save inserta solo los mensajes nuevos; el transcript ya persistido no se reescribe.
func (r *PgSessionRepository) Save(ctx context.Context, session domain.Session) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	userInfo := session.UserInfo
	if userInfo == nil {
		userInfo = map[string]any{}
	}
	corrections := session.Corrections
	if corrections == nil {
		corrections = []string{}
	}

	const upsert = `
		INSERT INTO resume_sessions (id, resume_text, corrections, user_info, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			resume_text = COALESCE(resume_sessions.resume_text, EXCLUDED.resume_text),
			corrections = EXCLUDED.corrections,
			user_info   = EXCLUDED.user_info,
			updated_at  = EXCLUDED.updated_at
	`
	_, err = tx.Exec(ctx, upsert,
		session.ID,
		session.ResumeText,
		corrections,
		userInfo,
		session.CreatedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	var stored int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM resume_messages WHERE session_id = $1`, session.ID).Scan(&stored); err != nil {
		return fmt.Errorf("count messages: %w", err)
	}

	const insertMessage = `
		INSERT INTO resume_messages (session_id, position, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i := stored; i < len(session.Messages); i++ {
		msg := session.Messages[i]
		if _, err := tx.Exec(ctx, insertMessage, session.ID, i, string(msg.Role), msg.Content, msg.Timestamp); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *PgSessionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM resume_sessions WHERE id = $1`, id)
	return err
}
