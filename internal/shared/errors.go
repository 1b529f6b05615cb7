package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Resolution errors
	ErrNoStream       = fmt.Errorf("no playable stream")
	ErrTierExhausted  = fmt.Errorf("tier exhausted")
	ErrInvalidQuality = fmt.Errorf("invalid quality")
	ErrTimeout        = fmt.Errorf("operation timed out")

	// Store and device errors
	ErrPermissionDenied = fmt.Errorf("permission denied")
	ErrRowNotFound      = fmt.Errorf("row not found")
	ErrNotSignedIn      = fmt.Errorf("not signed in")
	ErrDeviceNotFound   = fmt.Errorf("device not found")
	ErrNotRegistered    = fmt.Errorf("device not registered")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidCommand  = fmt.Errorf("invalid remote command")
)
