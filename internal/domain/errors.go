package domain

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches an id or email.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned when a token is missing, expired or revoked.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrPackNotFound indicates the quiz pack does not exist.
	ErrPackNotFound = errors.New("quiz pack not found")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrGameNotFound indicates no joinable game matches the id or code.
	ErrGameNotFound = errors.New("game not found")
	// ErrPlayerNotFound is returned when a player acts before joining.
	ErrPlayerNotFound = errors.New("player not found in game")
	// ErrInvalidTransition is returned for out-of-order lifecycle calls,
	// e.g. finishing a game that was never started.
	ErrInvalidTransition = errors.New("invalid game status transition")
)
