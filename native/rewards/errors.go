package rewards

import "errors"

var (
	ErrInvalidAddress      = errors.New("rewards: invalid address")
	ErrUnauthorized        = errors.New("rewards: unauthorized")
	ErrNotEligible         = errors.New("rewards: not eligible")
	ErrLevelAlreadyClaimed = errors.New("rewards: level already claimed")
	ErrInvalidLevel        = errors.New("rewards: level out of range")
	ErrAlreadyRegistered   = errors.New("rewards: referral already registered")
	ErrSelfReferral        = errors.New("rewards: self referral")
)
