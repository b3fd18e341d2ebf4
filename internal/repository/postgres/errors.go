package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"warehub-backend/internal/domain"
)

const uniqueViolation = "23505"

// translate maps driver errors onto domain error kinds.
func translate(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError(entity, id)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("%w: %s already exists", domain.ErrConflict, entity)
	}
	return err
}
