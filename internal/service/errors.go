package service

import (
	"errors"
	"fmt"

	"swiftaza/internal/model"
	"swiftaza/internal/repository"
)

var (
	// ErrValidation wraps every input rejection; handlers answer 400.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCodeRejected is an unknown, mismatched or expired verification code.
	ErrCodeRejected = errors.New("code expired")
	ErrInvalidPin   = errors.New("invalid wallet pin")
	ErrUnknownRole  = errors.New("unknown role")
	// ErrProvisionFailed means role provisioning rolled back its savepoint.
	ErrProvisionFailed = errors.New("role provisioning failed")

	ErrDuplicateUser = fmt.Errorf("%w: new email or full name required to proceed", repository.ErrConflict)

	ErrInsufficientFunds = model.ErrInsufficientFunds
)

func validationErr(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
