package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest marks a malformed or empty inbound payload.
	ErrBadRequest = errors.New("bad request")
	// ErrUnsupportedLanguage marks a language code outside SupportedLanguages.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrNoPrediction is returned when a classifier answers with no labels.
	ErrNoPrediction = errors.New("classifier returned no labels")
)

// ClassificationError wraps a failure of the external classifier.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// TranslationError wraps a failure of the external translator.
type TranslationError struct {
	Target Language
	Err    error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation to %s failed: %v", e.Target, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
