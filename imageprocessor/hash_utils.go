package imageprocessor

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/corona10/goimagehash"
	"github.com/glaslos/tlsh"
	"github.com/pkg/errors"
	"github.com/vitali-fedulov/imagehash2"
	"github.com/vitali-fedulov/images4"

	"imagecompare/types"
)

// DefaultHasher is the fingerprinter used when none is configured
const DefaultHasher = "phash"

// imagehash2 parameters for the central hash
const (
	hashNumBuckets = 4
	hashEpsilon    = 0.25
)

// ErrUnknownHasher is returned when a fingerprinter name is not registered
var ErrUnknownHasher = errors.New("unknown hasher")

// Fingerprinter derives a comparable token from a pixel grid.
// Tokens of the same fingerprinter are compared position by position.
type Fingerprinter interface {
	Name() string
	Fingerprint(grid *types.Grid) (string, error)
}

// FingerprintFunc adapts a function to the Fingerprinter interface
type FingerprintFunc struct {
	ID string
	Fn func(grid *types.Grid) (string, error)
}

func (f FingerprintFunc) Name() string { return f.ID }

func (f FingerprintFunc) Fingerprint(grid *types.Grid) (string, error) {
	if grid == nil || len(grid.Pix) == 0 {
		return "", errors.Errorf("cannot compute %s hash for empty image", f.ID)
	}
	return f.Fn(grid)
}

var fingerprinters = map[string]Fingerprinter{
	"phash":      FingerprintFunc{ID: "phash", Fn: perceptionHash},
	"ahash":      FingerprintFunc{ID: "ahash", Fn: averageHash},
	"dhash":      FingerprintFunc{ID: "dhash", Fn: differenceHash},
	"central":    FingerprintFunc{ID: "central", Fn: centralHash},
	"tlsh":       FingerprintFunc{ID: "tlsh", Fn: tlshHash},
	"structural": FingerprintFunc{ID: "structural", Fn: structuralHash},
}

// NewFingerprinter resolves a fingerprinter by name
func NewFingerprinter(name string) (Fingerprinter, error) {
	if name == "" {
		name = DefaultHasher
	}
	f, ok := fingerprinters[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHasher, "%q", name)
	}
	return f, nil
}

// FingerprinterNames returns the registered fingerprinter names, sorted
func FingerprinterNames() []string {
	names := make([]string, 0, len(fingerprinters))
	for name := range fingerprinters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// bitString renders a 64-bit hash as one '0'/'1' character per bit, so that
// character mismatches equal the Hamming distance of the bits
func bitString(h uint64) string {
	return fmt.Sprintf("%064b", h)
}

func perceptionHash(grid *types.Grid) (string, error) {
	h, err := goimagehash.PerceptionHash(GridToImage(grid))
	if err != nil {
		return "", errors.Wrap(err, "perception hash")
	}
	return bitString(h.GetHash()), nil
}

func averageHash(grid *types.Grid) (string, error) {
	h, err := goimagehash.AverageHash(GridToImage(grid))
	if err != nil {
		return "", errors.Wrap(err, "average hash")
	}
	return bitString(h.GetHash()), nil
}

func differenceHash(grid *types.Grid) (string, error) {
	h, err := goimagehash.DifferenceHash(GridToImage(grid))
	if err != nil {
		return "", errors.Wrap(err, "difference hash")
	}
	return bitString(h.GetHash()), nil
}

func centralHash(grid *types.Grid) (string, error) {
	icon := images4.Icon(GridToImage(grid))
	return bitString(imagehash2.CentralHash9(icon, hashEpsilon, hashNumBuckets)), nil
}

// flatTokenPrefix marks tlsh tokens of inputs too uniform for TLSH. It
// contains a non-hex character, so it never equals a real TLSH digest.
const flatTokenPrefix = "flat:"

// tlshHash fingerprints the raw pixel bytes. It is byte-level, not perceptual.
// Flat or low-variance grids have no TLSH digest and get the prefixed
// structural digest instead.
func tlshHash(grid *types.Grid) (string, error) {
	h, err := tlsh.HashBytes(GridBytes(grid))
	if err != nil {
		digest, serr := structuralHash(grid)
		if serr != nil {
			return "", errors.Wrap(err, "tlsh")
		}
		return flatTokenPrefix + digest, nil
	}
	return h.String(), nil
}

// structuralHash identifies the exact pixel content. Visually similar but
// byte-different images get unrelated tokens.
func structuralHash(grid *types.Grid) (string, error) {
	h := sha256.New()
	var dims [8]byte
	binary.BigEndian.PutUint32(dims[0:4], uint32(grid.Width))
	binary.BigEndian.PutUint32(dims[4:8], uint32(grid.Height))
	h.Write(dims[:])
	h.Write(GridBytes(grid))
	return hex.EncodeToString(h.Sum(nil)), nil
}
