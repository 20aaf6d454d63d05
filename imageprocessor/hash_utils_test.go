package imageprocessor

import (
	"image/color"
	"regexp"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagecompare/types"
)

var bitPattern = regexp.MustCompile(`^[01]{64}$`)

func checkerGrid(t *testing.T) *types.Grid {
	t.Helper()
	n, err := NewNormalizer(64, 64, DefaultFilter)
	require.NoError(t, err)
	grid, err := n.NormalizeImage(checkerboard(64, 64, 8))
	require.NoError(t, err)
	return grid
}

func TestNewFingerprinter(t *testing.T) {
	f, err := NewFingerprinter("")
	require.NoError(t, err)
	assert.Equal(t, DefaultHasher, f.Name())

	f, err = NewFingerprinter("DHASH")
	require.NoError(t, err)
	assert.Equal(t, "dhash", f.Name())

	_, err = NewFingerprinter("md5")
	assert.True(t, errors.Is(err, ErrUnknownHasher))
}

func TestFingerprinterNames(t *testing.T) {
	names := FingerprinterNames()
	assert.IsIncreasing(t, names)
	assert.ElementsMatch(t,
		[]string{"ahash", "central", "dhash", "phash", "structural", "tlsh"},
		names)
}

func TestBitHashes_AreDeterministicBitStrings(t *testing.T) {
	grid := checkerGrid(t)

	for _, name := range []string{"phash", "ahash", "dhash", "central"} {
		t.Run(name, func(t *testing.T) {
			f, err := NewFingerprinter(name)
			require.NoError(t, err)

			first, err := f.Fingerprint(grid)
			require.NoError(t, err)
			second, err := f.Fingerprint(grid)
			require.NoError(t, err)

			assert.Regexp(t, bitPattern, first)
			assert.Equal(t, first, second)
		})
	}
}

func TestStructuralHash(t *testing.T) {
	f, err := NewFingerprinter("structural")
	require.NoError(t, err)

	a := checkerGrid(t)
	b := checkerGrid(t)
	ta, err := f.Fingerprint(a)
	require.NoError(t, err)
	tb, err := f.Fingerprint(b)
	require.NoError(t, err)
	assert.Len(t, ta, 64)
	assert.Equal(t, ta, tb)

	b.Pix[0] ^= 0x00000001
	tb, err = f.Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, ta, tb)
}

func TestFingerprint_EmptyGrid(t *testing.T) {
	for _, name := range FingerprinterNames() {
		f, err := NewFingerprinter(name)
		require.NoError(t, err)

		_, err = f.Fingerprint(&types.Grid{})
		require.EqualError(t, err, "cannot compute "+name+" hash for empty image")
		_, traced := err.(interface{ StackTrace() errors.StackTrace })
		assert.True(t, traced, name)
		_, err = f.Fingerprint(nil)
		assert.Error(t, err, name)
	}
}

func TestBitString(t *testing.T) {
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000101", bitString(5))
	assert.Regexp(t, bitPattern, bitString(^uint64(0)))
}

func TestTLSH_FlatGridFallsBack(t *testing.T) {
	f, err := NewFingerprinter("tlsh")
	require.NoError(t, err)

	n, err := NewNormalizer(256, 256, DefaultFilter)
	require.NoError(t, err)
	red, err := n.NormalizeImage(solid(8, 8, color.NRGBA{R: 255, A: 255}))
	require.NoError(t, err)
	blue, err := n.NormalizeImage(solid(8, 8, color.NRGBA{B: 255, A: 255}))
	require.NoError(t, err)

	tr, err := f.Fingerprint(red)
	require.NoError(t, err)
	tb, err := f.Fingerprint(blue)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tr, flatTokenPrefix))
	assert.Len(t, tr, len(flatTokenPrefix)+64)
	assert.NotEqual(t, tr, tb)

	again, err := f.Fingerprint(red)
	require.NoError(t, err)
	assert.Equal(t, tr, again)
}
