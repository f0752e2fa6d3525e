package domain

import (
	"time"

	"github.com/google/uuid"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

func (v Visibility) IsValid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

func VisibilityFromPublic(isPublic bool) Visibility {
	if isPublic {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

type Note struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title    string    `json:"title" gorm:"not null"`
	Content  string    `json:"content" gorm:"type:text;not null"`
	AuthorID uuid.UUID `json:"authorId" gorm:"type:uuid;not null;index"`
	// AuthorName is the author's username at creation time. It is a snapshot
	// and is not rewritten when the author renames.
	AuthorName string     `json:"authorName" gorm:"not null"`
	Visibility Visibility `json:"visibility" gorm:"type:varchar(16);not null;index:idx_notes_visibility_created,priority:1"`
	CreatedAt  time.Time  `json:"createdAt" gorm:"index:idx_notes_visibility_created,priority:2"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	Author *User `json:"-" gorm:"foreignKey:AuthorID;constraint:OnDelete:RESTRICT"`
}

func (n *Note) IsPublic() bool {
	return n.Visibility == VisibilityPublic
}

// AuthorSummary is the live author data attached to a note at read time.
type AuthorSummary struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Avatar   string    `json:"avatar"`
}

// NoteView is a note hydrated with its author's current profile. AuthorName
// keeps the creation-time snapshot while Author reflects the live record.
type NoteView struct {
	Note
	Author *AuthorSummary `json:"author,omitempty"`
}

func NewNoteView(n *Note, author *User) *NoteView {
	v := &NoteView{Note: *n}
	v.Note.Author = nil
	if author != nil {
		v.Author = &AuthorSummary{
			ID:       author.ID,
			Username: author.Username,
			Avatar:   author.Avatar,
		}
	}
	return v
}
