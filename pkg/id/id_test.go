package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsSortable(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)
	g := NewGenerator(func() time.Time { return at })

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.New()
		assert.Len(t, ids[i], 26)
	}
	assert.True(t, sort.StringsAreSorted(ids), "same millisecond ids are monotonic")

	got, err := Time(ids[0])
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}

func TestPackageNew(t *testing.T) {
	t.Parallel()
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	assert.Less(t, a, b)

	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}
