// Package assistant defines the contract of the catalog question-answering
// helper. The model behind it is pluggable; none ships by default.
package assistant

import (
	"context"
	"errors"
)

var ErrNotConfigured = errors.New("assistant: model not configured")

// Result is a successful answer.
type Result struct {
	Response   string `json:"response"`
	TitleMatch string `json:"title_match"`
}

// Refusal is returned when the question is outside what the helper may
// answer, e.g. a book that is not in the catalog.
type Refusal struct {
	Message string
}

func (r *Refusal) Error() string { return r.Message }

// Answerer answers a free-form question restricted to the given titles.
type Answerer interface {
	Answer(ctx context.Context, query string, titles []string) (Result, error)
}

type AnswererFunc func(ctx context.Context, query string, titles []string) (Result, error)

func (f AnswererFunc) Answer(ctx context.Context, query string, titles []string) (Result, error) {
	return f(ctx, query, titles)
}

// Unconfigured answers every query with ErrNotConfigured.
type Unconfigured struct{}

func (Unconfigured) Answer(context.Context, string, []string) (Result, error) {
	return Result{}, ErrNotConfigured
}

// IsRefusal reports whether err is a refusal and returns it.
func IsRefusal(err error) (*Refusal, bool) {
	var r *Refusal
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
