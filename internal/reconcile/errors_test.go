package reconcile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"docstack/internal/model"
)

func TestAsError_RoundTrip(t *testing.T) {
	t.Parallel()

	var a model.Annotation
	annotate(&a, "Issued", ErrInvalidDate)
	annotate(&a, "revision", errors.New("boom"))

	assert.Len(t, a.Errors, 1)
	assert.Equal(t, model.ErrorInvalidDate, a.Errors[0].Kind)
	assert.ErrorIs(t, AsError(a.Errors[0]), ErrInvalidDate)
	assert.Equal(t, model.ErrorKind(""), KindOf(errors.New("other")))
	assert.False(t, errors.Is(AsError(model.RecordError{Message: "x"}), ErrInvalidDate))
}
