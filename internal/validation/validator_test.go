package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/sukritx/roommatebase/pkg/util/errorutil"
)

type sample struct {
	Capacity int    `json:"max_roommates" validate:"min=1"`
	Message  string `json:"message" validate:"maxrunes=5"`
	Inner    struct {
		Visitors string `json:"visitors" validate:"omitempty,oneof=none occasional frequent"`
	} `json:"preferences"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	v := New()
	in := sample{Capacity: 0, Message: "toolong"}
	in.Inner.Visitors = "always"

	err := v.Validate(in)
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	require.Equal(t, apperrors.CodeValidation, de.Code)
	require.Contains(t, de.Details, "max_roommates")
	require.Contains(t, de.Details, "message")
	require.Contains(t, de.Details, "preferences.visitors")
}

func TestMaxRunesCountsCharactersNotBytes(t *testing.T) {
	v := New()
	in := sample{Capacity: 1, Message: strings.Repeat("é", 5)}
	require.NoError(t, v.Validate(in))
}
