package sms

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidNumber is returned when the destination number has no digits
	// or more digits than the address field can carry.
	ErrInvalidNumber = errors.New("invalid destination number")
	// ErrEmptyMessage is returned for an empty text when the encoder rejects
	// empty messages.
	ErrEmptyMessage = errors.New("empty message text")
	// ErrTooManyParts is returned when the text needs more segments than
	// allowed.
	ErrTooManyParts = errors.New("message needs too many parts")
	// ErrUserDataTooLong is returned when the user data of a frame does not fit
	// into 140 octets.
	ErrUserDataTooLong = errors.New("user data too long")
)

// UnrepresentableError lists the characters that the narrow alphabet can not
// carry without corruption.
type UnrepresentableError struct {
	Runes []rune
}

// Error returns the list of unrepresentable characters.
func (e *UnrepresentableError) Error() string {
	quoted := make([]string, len(e.Runes))
	for i, r := range e.Runes {
		quoted[i] = fmt.Sprintf("%q", r)
	}
	return "characters outside the narrow alphabet: " + strings.Join(quoted, ", ")
}
