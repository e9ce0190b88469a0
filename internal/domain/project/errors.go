package project

import "errors"

var (
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrInvalidPackageName indicates the package identifier is not a
	// valid reverse-domain name.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrMissingWebsiteURL indicates a url-wrapped project without a target URL.
	ErrMissingWebsiteURL = errors.New("website url required for url-wrapped project")
	// ErrInvalidSourceMode indicates an unknown source mode.
	ErrInvalidSourceMode = errors.New("invalid source mode")
	// ErrInvalidInput indicates invalid input for project operations.
	ErrInvalidInput = errors.New("invalid project input")
)
