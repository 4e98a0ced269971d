package domain

import "errors"

// Caller errors, reported synchronously with no retry.
var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidPhoneNumber = errors.New("phone number must be Kenyan, e.g. 07XXXXXXXX or 2547XXXXXXXX")
	ErrAccountNotFound    = errors.New("paybill account not found")
	ErrInsufficientFunds  = errors.New("insufficient balance in source paybill")
)
