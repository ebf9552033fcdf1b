package domain

import "errors"

var (
	ErrRoomNotFound            = errors.New("room not found")
	ErrControllerNotFound      = errors.New("controller not found")
	ErrForbidden               = errors.New("forbidden")
	ErrInvalidCredential       = errors.New("invalid credential")
	ErrRegistrationClosed      = errors.New("registration is closed")
	ErrRoomsLimitReached       = errors.New("rooms limit reached")
	ErrControllersLimitReached = errors.New("controllers limit reached")
	ErrQueueFull               = errors.New("queue is full")
	ErrInvalidName             = errors.New("invalid name")
	ErrInvalidInput            = errors.New("invalid input")
	ErrNameConflict            = errors.New("no free name suffix")
	ErrStalePlayback           = errors.New("playback report does not match current video")
)
