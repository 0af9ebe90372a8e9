package notes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/skynote-go/apperror"
)

// Store persists notes. The relational store is the sole source of truth:
// nothing is cached across requests, and every operation that targets an
// existing note takes both the note id and the owner id.
type Store interface {
	ListByCreator(ctx context.Context, userID int) ([]Note, error)
	Insert(ctx context.Context, note *Note) (*Note, error)
	Get(ctx context.Context, id, userID int) (*Note, error)
	Update(ctx context.Context, note *Note) error
	Delete(ctx context.Context, id, userID int) error
}

// PgxStore is the PostgreSQL-backed note Store.
type PgxStore struct {
	db *pgxpool.Pool
}

// NewStore creates a note Store over the given pool.
func NewStore(db *pgxpool.Pool) *PgxStore {
	return &PgxStore{db: db}
}

// ListByCreator returns all notes created by the user, ordered by id.
func (s *PgxStore) ListByCreator(ctx context.Context, userID int) ([]Note, error) {
	query := `SELECT id, title, content, creator FROM notes WHERE creator = $1 ORDER BY id`
	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list notes", err)
	}
	defer rows.Close()

	var result []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Creator); err != nil {
			return nil, apperror.NewDatabaseError("failed to scan note", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewDatabaseError("failed to read notes", err)
	}
	return result, nil
}

// Insert persists a new note and fills in the generated id.
func (s *PgxStore) Insert(ctx context.Context, note *Note) (*Note, error) {
	query := `INSERT INTO notes (title, content, creator) VALUES ($1, $2, $3) RETURNING id`
	if err := s.db.QueryRow(ctx, query, note.Title, note.Content, note.Creator).Scan(&note.ID); err != nil {
		return nil, apperror.NewDatabaseError("failed to create note", err)
	}
	return note, nil
}

// Get retrieves a note by id, restricted to the given owner. A note that
// exists but belongs to another user is NotFound.
func (s *PgxStore) Get(ctx context.Context, id, userID int) (*Note, error) {
	var n Note
	query := `SELECT id, title, content, creator FROM notes WHERE id = $1 AND creator = $2`
	err := s.db.QueryRow(ctx, query, id, userID).Scan(&n.ID, &n.Title, &n.Content, &n.Creator)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("note %d not found", id), nil)
		}
		return nil, apperror.NewDatabaseError("failed to get note", err)
	}
	return &n, nil
}

// Update writes the note's title and content in a single statement scoped
// by id and creator. Zero affected rows means the note does not exist for
// that owner.
func (s *PgxStore) Update(ctx context.Context, note *Note) error {
	query := `UPDATE notes SET title = $1, content = $2 WHERE id = $3 AND creator = $4`
	tag, err := s.db.Exec(ctx, query, note.Title, note.Content, note.ID, note.Creator)
	if err != nil {
		return apperror.NewDatabaseError("failed to update note", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("note %d not found", note.ID), nil)
	}
	return nil
}

// Delete removes a note scoped by id and creator.
func (s *PgxStore) Delete(ctx context.Context, id, userID int) error {
	query := `DELETE FROM notes WHERE id = $1 AND creator = $2`
	tag, err := s.db.Exec(ctx, query, id, userID)
	if err != nil {
		return apperror.NewDatabaseError("failed to delete note", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("note %d not found", id), nil)
	}
	return nil
}
