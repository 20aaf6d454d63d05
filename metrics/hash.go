package metrics

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"imagecompare/imageprocessor"
	"imagecompare/logging"
	"imagecompare/types"
)

// TokenCache stores fingerprint tokens across runs
type TokenCache interface {
	LookupToken(sample *types.Sample, hasher string) (string, bool, error)
	StoreToken(sample *types.Sample, hasher, token string) error
}

// Hamming compares two tokens position by position over the shorter length
// and returns 1 - mismatches/length.
//
// Trailing characters of the longer token are ignored, so "ab" and "abcd"
// score 1.0. Two empty tokens score 1.0; one empty token scores 0.0.
func Hamming(a, b string) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		if len(a) == len(b) {
			return 1.0
		}
		return 0.0
	}
	return 1 - float64(HammingDistance(a, b))/float64(n)
}

// HammingDistance calculates the number of differing positions between two
// tokens over the shorter length
func HammingDistance(hash1, hash2 string) int {
	var distance int
	minLen := len(hash1)
	if len(hash2) < minLen {
		minLen = len(hash2)
	}

	for i := 0; i < minLen; i++ {
		if hash1[i] != hash2[i] {
			distance++
		}
	}

	return distance
}

// HashMetric fingerprints every sample once and compares tokens
type HashMetric struct {
	Fingerprinter imageprocessor.Fingerprinter
	Cache         TokenCache

	mu     sync.RWMutex
	tokens map[*types.Sample]string
}

// NewHashMetric resolves the fingerprinter by name. cache may be nil.
func NewHashMetric(hasher string, cache TokenCache) (*HashMetric, error) {
	fp, err := imageprocessor.NewFingerprinter(hasher)
	if err != nil {
		return nil, err
	}
	return &HashMetric{
		Fingerprinter: fp,
		Cache:         cache,
		tokens:        make(map[*types.Sample]string),
	}, nil
}

func (m *HashMetric) Name() string {
	return string(KindPerceptualHash) + "/" + m.Fingerprinter.Name()
}

// Prepare fingerprints every sample. Samples that cannot be fingerprinted are
// left out and fail their comparisons individually.
func (m *HashMetric) Prepare(ctx context.Context, samples []*types.Sample) error {
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := m.Token(s); err != nil {
			logging.LogWarning("Cannot fingerprint %s: %v", s.Name, err)
		}
	}
	return nil
}

// Token returns the fingerprint of a sample, computing it on first use
func (m *HashMetric) Token(s *types.Sample) (string, error) {
	m.mu.RLock()
	token, ok := m.tokens[s]
	m.mu.RUnlock()
	if ok {
		return token, nil
	}

	token, err := m.fingerprint(s)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.tokens[s] = token
	m.mu.Unlock()
	return token, nil
}

func (m *HashMetric) fingerprint(s *types.Sample) (string, error) {
	name := m.Fingerprinter.Name()
	if m.Cache != nil {
		token, found, err := m.Cache.LookupToken(s, name)
		if err != nil {
			logging.LogWarning("Fingerprint cache lookup failed for %s: %v", s.Path, err)
		} else if found {
			logging.DebugLog("Fingerprint cache hit: %s (%s)", s.Path, name)
			return token, nil
		}
	}

	token, err := m.Fingerprinter.Fingerprint(s.Grid)
	if err != nil {
		return "", errors.Wrapf(err, "fingerprint %s", s.Name)
	}

	if m.Cache != nil {
		if err := m.Cache.StoreToken(s, name, token); err != nil {
			logging.LogWarning("Cannot cache fingerprint for %s: %v", s.Path, err)
		}
	}
	return token, nil
}

func (m *HashMetric) Score(a, b *types.Sample) (float64, error) {
	ta, err := m.Token(a)
	if err != nil {
		return 0, err
	}
	tb, err := m.Token(b)
	if err != nil {
		return 0, err
	}
	return Hamming(ta, tb), nil
}
