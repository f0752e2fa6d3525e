package postgres

import (
	"context"
	"time"

	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) *noteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	return translateError(r.db.WithContext(ctx).Omit(clause.Associations).Create(note).Error)
}

func (r *noteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	var note domain.Note
	err := r.db.WithContext(ctx).First(&note, "id = ?", id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &note, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note) error {
	now := time.Now()
	res := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("id = ? AND author_id = ?", note.ID, note.AuthorID).
		Updates(map[string]interface{}{
			"title":      note.Title,
			"content":    note.Content,
			"visibility": note.Visibility,
			"updated_at": now,
		})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	note.UpdatedAt = now
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id, authorID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&domain.Note{})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *noteRepository) ListPublic(ctx context.Context, limit, offset int) ([]*domain.NoteView, error) {
	var notes []*domain.Note
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("visibility = ?", domain.VisibilityPublic).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&notes).Error
	if err != nil {
		return nil, translateError(err)
	}
	return toViews(notes), nil
}

func (r *noteRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, publicOnly bool) ([]*domain.NoteView, error) {
	q := r.db.WithContext(ctx).
		Preload("Author").
		Where("author_id = ?", authorID)
	if publicOnly {
		q = q.Where("visibility = ?", domain.VisibilityPublic)
	}

	var notes []*domain.Note
	if err := q.Order("created_at DESC, id DESC").Find(&notes).Error; err != nil {
		return nil, translateError(err)
	}
	return toViews(notes), nil
}

func toViews(notes []*domain.Note) []*domain.NoteView {
	views := make([]*domain.NoteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, domain.NewNoteView(n, n.Author))
	}
	return views
}
