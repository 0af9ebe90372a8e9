package notes

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/user/skynote-go/apperror"
)

// Service implements note CRUD scoped by creator.
type Service struct {
	store Store
	log   zerolog.Logger
}

// NewService creates a notes Service over the given store.
func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// List returns all notes created by the user.
func (s *Service) List(ctx context.Context, userID int) ([]Note, error) {
	return s.store.ListByCreator(ctx, userID)
}

// Create persists a new note for the user. An empty or whitespace-only
// title becomes DefaultTitle.
func (s *Service) Create(ctx context.Context, userID int, title, content string) (*Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}

	note := &Note{
		Title:   title,
		Content: content,
		Creator: userID,
	}
	created, err := s.store.Insert(ctx, note)
	if err != nil {
		s.log.Error().Err(err).Int("user", userID).Msg("note create failed")
		return nil, err
	}
	return created, nil
}

// Find retrieves a note by id, restricted to notes owned by the user.
func (s *Service) Find(ctx context.Context, userID, noteID int) (*Note, error) {
	return s.store.Get(ctx, noteID, userID)
}

// Update merges the given fields over the user's existing note. A field
// submitted empty keeps its prior value; creator is never touched. The
// merged row is written back in one statement.
func (s *Service) Update(ctx context.Context, userID, noteID int, title, content string) (*Note, error) {
	existing, err := s.store.Get(ctx, noteID, userID)
	if err != nil {
		return nil, err
	}

	if t := strings.TrimSpace(title); t != "" {
		existing.Title = t
	}
	if content != "" {
		existing.Content = content
	}

	if err := s.store.Update(ctx, existing); err != nil {
		if !apperror.IsNotFound(err) {
			s.log.Error().Err(err).Int("user", userID).Int("note", noteID).Msg("note update failed")
		}
		return nil, err
	}
	return existing, nil
}

// Delete removes the user's note.
func (s *Service) Delete(ctx context.Context, userID, noteID int) error {
	if err := s.store.Delete(ctx, noteID, userID); err != nil {
		return err
	}
	return nil
}
