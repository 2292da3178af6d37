package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Kind classifies a failure so the HTTP layer can map it to a status code
// without inspecting error text.
type Kind int

const (
	KindBadRequest Kind = iota + 1
	KindUnauthorized
	KindNotFound
	KindInternal
	KindExternal
)

// Error is the typed failure value every orchestrator operation returns on
// the sad path. Category names the subject the way the API phrases it
// ("user", "password", "refresh token").
type Error struct {
	Kind     Kind
	Category string
	Err      error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBadRequest:
		return fmt.Sprintf("%s required", e.Category)
	case KindUnauthorized:
		return fmt.Sprintf("unauthorized: invalid %s", e.Category)
	case KindNotFound:
		return fmt.Sprintf("%s not found", e.Category)
	case KindExternal:
		return fmt.Sprintf("something went wrong with %s", e.Category)
	default:
		return fmt.Sprintf("internal error: %s", e.Category)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message is the capitalized user-facing form, matching the responses the
// client already parses.
func (e *Error) Message() string {
	switch e.Kind {
	case KindBadRequest:
		return capitalize(e.Category) + " Required"
	case KindUnauthorized:
		return "Unauthorized: Invalid " + capitalize(e.Category)
	case KindNotFound:
		return capitalize(e.Category) + " Not Found"
	case KindExternal:
		return "Server Error: Something went wrong with " + capitalize(e.Category)
	default:
		return "Internal Server Error: Unable to " + capitalize(e.Category)
	}
}

func BadRequest(category string) *Error {
	return &Error{Kind: KindBadRequest, Category: category}
}

func Unauthorized(category string) *Error {
	return &Error{Kind: KindUnauthorized, Category: category}
}

func NotFound(category string) *Error {
	return &Error{Kind: KindNotFound, Category: category}
}

func Internal(category string, err error) *Error {
	return &Error{Kind: KindInternal, Category: category, Err: err}
}

func External(category string, err error) *Error {
	return &Error{Kind: KindExternal, Category: category, Err: err}
}

// KindOf reports the failure kind, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindInternal
}

func capitalize(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
