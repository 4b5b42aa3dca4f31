package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:     PhaseBlock,
				Kind:      KindInvalidAbbreviationID,
				Path:      []string{"block[8]", "block[12]"},
				Offset:    77,
				HasOffset: true,
				Detail:    "abbreviation 9 not defined",
			},
			contains: []string{"[block]", "invalid_abbreviation_id", "block[8].block[12]", "bit 77", "byte 9", "abbreviation 9 not defined"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseRead,
				Kind:  KindOutOfRange,
			},
			contains: []string{"[read]", "out_of_range"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidData,
				Detail: "read file",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[load]", "invalid_data", "read file", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_NoOffsetWhenUnset(t *testing.T) {
	err := &Error{Phase: PhaseHeader, Kind: KindBadSignature}
	require.NotContains(t, err.Error(), "at bit")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseLoad,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseHeader,
		Kind:  KindBadHeaderID,
		Path:  []string{"field[0]"},
	}

	if !err.Is(&Error{Phase: PhaseHeader, Kind: KindBadHeaderID}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseBlock, Kind: KindBadHeaderID}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseHeader, Kind: KindBadFieldType}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(err, ErrBadHeaderID) {
		t.Error("errors.Is should match the kind-only sentinel")
	}
	if errors.Is(err, ErrBadFieldType) {
		t.Error("errors.Is should not match a different sentinel")
	}

	wrapped := fmt.Errorf("decode: %w", err)
	require.ErrorIs(t, wrapped, ErrBadHeaderID)
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseAbbrev, KindInvalidEncoding).
		Path("block[0]").
		Offset(130).
		Value(7).
		Cause(cause).
		Detail("encoding %d not in %d..%d", 7, 1, 5).
		Build()

	require.Equal(t, PhaseAbbrev, err.Phase)
	require.Equal(t, KindInvalidEncoding, err.Kind)
	require.Equal(t, []string{"block[0]"}, err.Path)
	require.True(t, err.HasOffset)
	require.Equal(t, uint64(130), err.Offset)
	require.Equal(t, 7, err.Value)
	require.ErrorIs(t, err, cause)
	require.Equal(t, "encoding 7 not in 1..5", err.Detail)
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindOverflow, KindOf(Overflow(3, 64)))
	require.Equal(t, KindOutOfRange, KindOf(fmt.Errorf("wrap: %w", OutOfRange(40, 32))))
	require.Equal(t, Kind(""), KindOf(errors.New("plain")))
	require.Equal(t, Kind(""), KindOf(nil))
}

func TestWithPath(t *testing.T) {
	err := error(UnexpectedEnd(64, 12))
	err = WithPath(err, "block[12]")
	err = WithPath(err, "block[8]")

	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, []string{"block[8]", "block[12]"}, e.Path)
	require.Contains(t, err.Error(), "block[8].block[12]")

	plain := errors.New("plain")
	require.Same(t, plain, WithPath(plain, "block[1]"))
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("OutOfRange", func(t *testing.T) {
		err := OutOfRange(33, 32)
		require.Equal(t, KindOutOfRange, err.Kind)
		require.Equal(t, PhaseRead, err.Phase)
		require.Contains(t, err.Detail, "33")
		require.Equal(t, uint64(33), err.Value)
	})

	t.Run("InvalidWidth", func(t *testing.T) {
		err := InvalidWidth(0, 33, 1, 32)
		require.Equal(t, KindInvalidWidth, err.Kind)
		require.Contains(t, err.Detail, "1..32")
	})

	t.Run("UnexpectedEnd", func(t *testing.T) {
		err := UnexpectedEnd(96, 5)
		require.Equal(t, KindUnexpectedEnd, err.Kind)
		require.Equal(t, PhaseBlock, err.Phase)
		require.Equal(t, uint32(5), err.Value)
	})

	t.Run("InvalidData", func(t *testing.T) {
		err := InvalidData(PhaseBlockInfo, 8, "SETBID without operand")
		require.Equal(t, KindInvalidData, err.Kind)
		require.Equal(t, PhaseBlockInfo, err.Phase)
	})

	t.Run("Load", func(t *testing.T) {
		cause := errors.New("eof")
		err := Load("read file", cause)
		require.Equal(t, PhaseLoad, err.Phase)
		require.ErrorIs(t, err, cause)
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseLoad, "file", "x.pexe")
		require.Equal(t, KindNotFound, err.Kind)
		require.Contains(t, err.Error(), `"x.pexe"`)
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseLoad, "ftp scheme")
		require.Equal(t, KindUnsupported, err.Kind)
	})
}
