package postgres

import (
	"errors"

	"github.com/dom/noteshare/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translateError maps driver errors onto the domain taxonomy. Anything it
// does not recognise is returned unchanged and treated as an upstream
// failure by the services.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case "idx_users_username":
				return domain.NewConflictError("username")
			case "idx_users_email":
				return domain.NewConflictError("email")
			}
			return domain.NewConflictError("")
		case pgForeignKeyViolation:
			return domain.ErrNotFound
		}
	}
	return err
}
