package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateSKU      = errors.New("sku already exists")
	ErrUnauthorized      = errors.New("unauthorized")
)
