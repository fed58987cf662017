package searchparams

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/alphagov/rummager/internal/domain"
	"github.com/alphagov/rummager/internal/domain/search/params"
)

// ParamError describes one invalid request parameter.
type ParamError struct {
	Param   string `json:"parameter"`
	Message string `json:"error"`
}

// ValidationError enumerates every invalid parameter in a request.
type ValidationError struct {
	Problems []ParamError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Param + ": " + p.Message
	}
	return "invalid search parameters: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidQuery }

// validator accumulates parameter problems during a parse.
type validator struct {
	problems []ParamError
}

func (v *validator) add(param, message string) {
	v.problems = append(v.problems, ParamError{Param: param, Message: message})
}

func (v *validator) err() error {
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// nonNegativeInt parses an optional non-negative integer parameter.
func (v *validator) nonNegativeInt(raw url.Values, param string, fallback int) int {
	value := raw.Get(param)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		v.add(param, "must be a non-negative integer")
		return fallback
	}
	return n
}

// count parses the page size, bounded by the configured maximum. An
// absent parameter takes the default page size; an explicit zero is
// preserved, so aggregate-only queries can skip hits entirely.
func (v *validator) count(raw url.Values, maxCount int) int {
	n := v.nonNegativeInt(raw, "count", params.DefaultCount)
	if n > maxCount {
		v.add("count", "must not be larger than "+strconv.Itoa(maxCount))
		return params.DefaultCount
	}
	return n
}
