// Package policy decides whether a caller may perform an action on a note or
// a user profile. Decide is a pure function of its inputs.
//
// Denials never reveal more than the caller is entitled to know: a caller who
// is authenticated but not the owner of a private or mutated note is told
// the note was not found, exactly as if it did not exist.
package policy

import (
	"github.com/dom/noteshare/internal/domain"
	"github.com/google/uuid"
)

type Action string

const (
	ActionReadNote       Action = "read_note"
	ActionCreateNote     Action = "create_note"
	ActionUpdateNote     Action = "update_note"
	ActionDeleteNote     Action = "delete_note"
	ActionReadProfile    Action = "read_profile"
	ActionUpdateProfile  Action = "update_profile"
	ActionChangePassword Action = "change_password"
	ActionUploadAvatar   Action = "upload_avatar"
)

// Resource is the snapshot of the target the decision is made about. For
// notes OwnerID is the author; for profiles it is the user being changed.
type Resource struct {
	OwnerID    uuid.UUID
	Visibility domain.Visibility
}

func NoteResource(n *domain.Note) Resource {
	return Resource{OwnerID: n.AuthorID, Visibility: n.Visibility}
}

func ProfileResource(userID uuid.UUID) Resource {
	return Resource{OwnerID: userID}
}

// Decision is either Allow or a Deny carrying the error the caller sees.
type Decision struct {
	Allowed bool
	Reason  error
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason error) Decision {
	return Decision{Reason: reason}
}

// Err returns nil when allowed and the deny reason otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return d.Reason
}

func Decide(action Action, res Resource, claims *domain.Claims) Decision {
	switch action {
	case ActionReadNote:
		if res.Visibility == domain.VisibilityPublic {
			return allow()
		}
		if claims == nil {
			return deny(domain.ErrAuthentication)
		}
		if isOwner(res, claims) {
			return allow()
		}
		return deny(domain.ErrNotFound)

	case ActionCreateNote:
		if claims == nil {
			return deny(domain.ErrAuthentication)
		}
		return allow()

	case ActionUpdateNote, ActionDeleteNote:
		if claims == nil {
			return deny(domain.ErrAuthentication)
		}
		if isOwner(res, claims) {
			return allow()
		}
		return deny(domain.ErrNotFound)

	case ActionReadProfile:
		return allow()

	case ActionUpdateProfile, ActionChangePassword, ActionUploadAvatar:
		if claims != nil && isOwner(res, claims) {
			return allow()
		}
		return deny(domain.ErrAuthentication)
	}

	// Unknown actions are never allowed.
	return deny(domain.ErrNotFound)
}

func isOwner(res Resource, claims *domain.Claims) bool {
	return res.OwnerID != uuid.Nil && res.OwnerID == claims.SubjectID
}
