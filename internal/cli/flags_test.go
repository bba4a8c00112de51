package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	docerrors "github.com/lerboi/FileManagement-sub001/internal/errors"
)

func TestIsValidOutputFormat(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidOutputFormat(OutputText))
	assert.True(t, IsValidOutputFormat(OutputJSON))
	assert.False(t, IsValidOutputFormat("xml"))
	assert.False(t, IsValidOutputFormat(""))
}

func TestExitCodeForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "generic", err: errors.New("boom"), want: ExitError},
		{name: "invalid argument", err: fmt.Errorf("wrap: %w", docerrors.ErrInvalidArgument), want: ExitInvalidInput},
		{name: "validation", err: docerrors.NewValidationError("id", "required"), want: ExitInvalidInput},
		{name: "cobra unknown flag", err: errors.New("unknown flag: --nope"), want: ExitInvalidInput},
		{name: "cobra arg count", err: errors.New("accepts 1 arg(s), received 0"), want: ExitInvalidInput},
		{name: "not found", err: docerrors.ErrTaskNotFound, want: ExitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, ExitCodeForError(tc.err))
		})
	}
}

func TestParseKeyValues(t *testing.T) {
	t.Parallel()

	got, err := parseKeyValues([]string{"fee=1200", " Start Date =2025-01-02", "note=a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"fee":        "1200",
		"Start Date": "2025-01-02",
		"note":       "a=b",
		"empty":      "",
	}, got)

	for _, bad := range []string{"novalue", "=value", " =x"} {
		_, err := parseKeyValues([]string{bad})
		require.ErrorIs(t, err, docerrors.ErrInvalidArgument, bad)
	}
}
