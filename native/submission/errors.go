package submission

import "errors"

var (
	ErrInvalidData     = errors.New("submission: invalid submission data")
	ErrInvalidAddress  = errors.New("submission: invalid address")
	ErrInvalidAmount   = errors.New("submission: invalid amount")
	ErrNotFound        = errors.New("submission: not found")
	ErrAlreadyApproved = errors.New("submission: already approved")
	ErrAlreadyRejected = errors.New("submission: already rejected")
	ErrUnauthorized    = errors.New("submission: unauthorized")
)
