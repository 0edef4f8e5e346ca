package achievement

import "errors"

var (
	ErrInvalidAddress    = errors.New("achievement: invalid address")
	ErrNotVerifiedPOI    = errors.New("achievement: proof of impact not verified")
	ErrAlreadyMinted     = errors.New("achievement: already minted")
	ErrInvalidLevelRange = errors.New("achievement: level out of range")
	ErrTokenNotFound     = errors.New("achievement: token not found")
	ErrUnauthorized      = errors.New("achievement: unauthorized")
)
