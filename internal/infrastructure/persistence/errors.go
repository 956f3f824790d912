package persistence

import (
	"errors"

	"github.com/retailpos/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translate maps gorm's not-found error to the domain sentinel and passes
// everything else through unchanged
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
