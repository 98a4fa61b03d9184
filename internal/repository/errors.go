package repository

import (
	stderrors "errors"

	"gorm.io/gorm"

	"foodgram/internal/db"
	"foodgram/internal/errors"
)

// translate maps storage errors to domain errors at the repository boundary.
// entity names the row kind for not-found messages.
func translate(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, gorm.ErrRecordNotFound):
		return errors.NotFound(entity)
	case db.IsUniqueViolation(err):
		return errors.AlreadyExists(entity + " already exists")
	default:
		return err
	}
}
