package apperrors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrNoDataset            = errors.New("no dataset loaded")
	ErrNoSelection          = errors.New("no ticket selected")
	ErrImport               = errors.New("import failed")
	ErrPersistence          = errors.New("snapshot write failed")
	ErrRemoteUpload         = errors.New("remote upload failed")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrNoActiveSession      = errors.New("no active session")
)
