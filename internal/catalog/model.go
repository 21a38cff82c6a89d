package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("service not found")

// Service is a bookable paid offering. This module only reads services; their
// CRUD lives elsewhere.
type Service struct {
	ID        string
	Title     string
	Price     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}
