package partner

import (
	"strings"

	"github.com/retailpos/backend/internal/domain/shared"
)

// Contact holds the contact details shared by customers and suppliers
type Contact struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

func (c Contact) normalized() (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	c.Address = strings.TrimSpace(c.Address)
	if c.Name == "" {
		return c, shared.ErrInvalidInput.WithMessage("Name cannot be empty")
	}
	if len(c.Name) > 200 {
		return c, shared.ErrInvalidInput.WithMessage("Name cannot exceed 200 characters")
	}
	if c.Email != "" && !strings.Contains(c.Email, "@") {
		return c, shared.ErrInvalidInput.WithMessage("Invalid email format")
	}
	return c, nil
}
