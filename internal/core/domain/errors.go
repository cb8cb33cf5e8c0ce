package domain

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrConnectionNotFound = errors.New("connection not found")
	ErrSessionNotFound    = errors.New("capture session not found")
	ErrInvalidPasscode    = errors.New("invalid passcode")
	ErrRenderInProgress   = errors.New("render already in progress for session")
)
