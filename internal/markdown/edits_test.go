package markdown

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEdits_SingleReplacement(t *testing.T) {
	src := []byte("See [API](./api-guide.md) for details.\n")
	old := []byte("./api-guide.md")
	idx := bytes.Index(src, old)
	require.NotEqual(t, -1, idx)

	out, err := ApplyEdits(src, []Edit{{Start: idx, End: idx + len(old), Replacement: []byte("../lib/api-guide.md")}})
	require.NoError(t, err)
	require.Equal(t, "See [API](../lib/api-guide.md) for details.\n", string(out))
	require.Equal(t, "See [API](./api-guide.md) for details.\n", string(src), "source must not be modified")
}

func TestApplyEdits_UnsortedInput(t *testing.T) {
	src := []byte("A: x.md\nB: y.md\n")
	ix := bytes.Index(src, []byte("x.md"))
	iy := bytes.Index(src, []byte("y.md"))

	out, err := ApplyEdits(src, []Edit{
		{Start: iy, End: iy + 4, Replacement: []byte("../b/y.md")},
		{Start: ix, End: ix + 4, Replacement: []byte("../a/x.md")},
	})
	require.NoError(t, err)
	require.Equal(t, "A: ../a/x.md\nB: ../b/y.md\n", string(out))
}

func TestApplyEdits_Insertion(t *testing.T) {
	out, err := ApplyEdits([]byte("ab"), []Edit{{Start: 1, End: 1, Replacement: []byte("-")}})
	require.NoError(t, err)
	require.Equal(t, "a-b", string(out))
}

func TestApplyEdits_RejectsOverlap(t *testing.T) {
	_, err := ApplyEdits([]byte("0123456789"), []Edit{{Start: 1, End: 5}, {Start: 4, End: 6}})
	require.ErrorIs(t, err, ErrOverlappingEdits)
}

func TestApplyEdits_RejectsOutOfBounds(t *testing.T) {
	_, err := ApplyEdits([]byte("abc"), []Edit{{Start: 2, End: 9}})
	require.Error(t, err)
	_, err = ApplyEdits([]byte("abc"), []Edit{{Start: 2, End: 1}})
	require.Error(t, err)
}
