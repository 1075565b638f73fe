package application

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrActionNotFound     = errors.New("action not found")
	ErrInvalidActionType  = errors.New("action type is required")
	ErrInvalidSwap        = errors.New("invalid swap")
	ErrAIUnavailable      = errors.New("ai service unavailable")
	ErrStorageUnavailable = errors.New("storage not configured")
	ErrUnsupportedImage   = errors.New("unsupported image type")
)
