package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitionsDoNotMutateOriginal(t *testing.T) {
	drv := newFakeDriver()
	base := NewState(drv)

	el := drv.element("x")
	s1 := base.WithLast(el)
	s2 := s1.WithScope(el)

	assert.Nil(t, base.Last)
	assert.Nil(t, base.Scope)
	assert.Nil(t, s1.Scope)
	assert.Same(t, el, s2.Last)
	assert.Same(t, el, s2.Scope)
	// the driver handle is never altered across transitions
	assert.Same(t, drv, base.Driver)
	assert.Same(t, drv, s2.Driver)
}

func TestWarningsAppendOnlyAndUnaliased(t *testing.T) {
	drv := newFakeDriver()
	s := NewState(drv)

	s1 := s.AppendWarning("a")
	s2 := s1.AppendWarning("b")
	s3 := s1.AppendWarning("c")

	assert.Empty(t, s.Warnings)
	assert.Equal(t, []string{"a"}, s1.Warnings)
	assert.Equal(t, []string{"a", "b"}, s2.Warnings)
	// sibling lineages never observe each other's appends
	assert.Equal(t, []string{"a", "c"}, s3.Warnings)
}

func TestWarningsMonotoneAcrossLineage(t *testing.T) {
	drv := newFakeDriver()
	s := NewState(drv)

	prev := 0
	for i := 0; i < 5; i++ {
		s = s.AppendWarning("w").WithLast(i).WithScope(nil)
		assert.Greater(t, len(s.Warnings), prev)
		prev = len(s.Warnings)
	}
}
