package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential marks the normal anonymous path. It is logged, never returned by the resolver.
	ErrNoCredential = errors.New("no stored credential")
	// ErrProfileFetchFailed wraps any failure to load the current user profile
	ErrProfileFetchFailed = errors.New("profile fetch failed")
	// ErrInvalidProfile means the profile payload could not be parsed or validated
	ErrInvalidProfile = fmt.Errorf("invalid profile payload: %w", ErrProfileFetchFailed)
	// ErrEmptyCredential is returned by Login when the sign-in payload carries no token
	ErrEmptyCredential = errors.New("empty credential")
)
