package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errors.New("slot not found")

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("book: %w", NotFound(errSentinel, "slot %s does not exist", "abc"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(err, KindConflict))
	assert.ErrorIs(t, err, errSentinel)
	assert.Equal(t, "book: slot abc does not exist: slot not found", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("boom")))
	assert.False(t, IsKind(nil, KindValidation))
}

func TestConflictWith(t *testing.T) {
	list := []string{"a", "b"}
	err := ConflictWith(nil, list, "2 slots overlap")

	assert.Equal(t, KindConflict, err.Kind)
	assert.Equal(t, list, ConflictsOf(fmt.Errorf("wrapped: %w", err)))
	assert.Nil(t, ConflictsOf(Validation("bad")))
	assert.Equal(t, "2 slots overlap", err.Error())
}
