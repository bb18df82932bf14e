package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestWithCode(t *testing.T) {
	tts := []struct {
		err      error
		code     int
		expected *codedError
	}{
		{
			err:  errors.New("simple error"),
			code: 404,
			expected: &codedError{
				msg:   "simple error",
				code:  404,
				cause: nil,
			},
		},
		{
			err: &codedError{
				msg:   "custom error",
				code:  200,
				cause: nil,
			},
			code: 501,
			expected: &codedError{
				msg:   "custom error",
				code:  501,
				cause: nil,
			},
		},
		{
			err: &codedError{
				msg:   "keep cause",
				code:  125,
				cause: &codedError{msg: "I am the cause"},
			},
			code: 305,
			expected: &codedError{
				msg:   "keep cause",
				code:  305,
				cause: &codedError{msg: "I am the cause"},
			},
		},
		{
			// nil in, nil out
			err:      nil,
			code:     305,
			expected: nil,
		},
	}

	for i, tt := range tts {
		err, _ := WithCode(tt.code)(tt.err).(*codedError)
		assertErrors(tt.expected, err, t, fmt.Sprintf("%d WithCode", i))
	}
}

func TestWithCause(t *testing.T) {
	tts := []struct {
		err      error
		cause    error
		expected *codedError
	}{
		{
			err:   errors.New("simple error"),
			cause: errors.New("I am the cause"),
			expected: &codedError{
				msg:   "simple error",
				code:  500,
				cause: &codedError{msg: "I am the cause", code: DefaultCode, cause: nil},
			},
		},
		{
			err: errors.New("simple error"),
			cause: &codedError{
				msg:   "forward code",
				code:  120,
				cause: nil,
			},
			expected: &codedError{
				msg:   "simple error",
				code:  120,
				cause: &codedError{msg: "forward code", code: 120, cause: nil},
			},
		},
		{
			err: &codedError{
				msg:   "custom error",
				code:  200,
				cause: nil,
			},
			cause: &codedError{
				msg:   "custom cause",
				code:  300,
				cause: nil,
			},
			expected: &codedError{
				msg:   "custom error",
				code:  200,
				cause: &codedError{msg: "custom cause", code: 300, cause: nil},
			},
		},
		{
			err: &codedError{
				msg:   "change cause",
				code:  125,
				cause: &codedError{msg: "I am the cause", code: DefaultCode, cause: nil},
			},
			cause: errors.New("I am the new cause"),
			expected: &codedError{
				msg:   "change cause",
				code:  125,
				cause: &codedError{msg: "I am the new cause", code: DefaultCode, cause: nil},
			},
		},
		{
			// nil in, nil out
			err:      nil,
			cause:    errors.New("the cause is ignored if the wrapper is nil"),
			expected: nil,
		},
	}

	for i, tt := range tts {
		err, _ := WithCause(tt.cause)(tt.err).(*codedError)
		assertErrors(tt.expected, err, t, fmt.Sprintf("%d WithCause", i))
	}
}

func assertErrors(exp *codedError, got *codedError, t *testing.T, name string) {
	if exp == nil && got == nil {
		return
	}

	if exp == nil && got != nil {
		t.Errorf("%s - expected nil, got non-nil", name)
		return
	}

	if exp != nil && got == nil {
		t.Errorf("%s - expected non-nil, got nil", name)
		return
	}

	if got.code != exp.code {
		t.Errorf("%s - code: %d != %d", name, exp.code, got.code)
	}

	if got.msg != exp.msg {
		t.Errorf("%s - msg: %s != %s", name, exp.msg, got.msg)
	}

	assertErrors(exp.cause, got.cause, t, name)
}
