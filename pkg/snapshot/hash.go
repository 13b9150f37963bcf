package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"
)

// Algorithm names a content digest function.
type Algorithm string

const (
	// SHA256 is the default algorithm. Collisions are cryptographically negligible.
	SHA256 Algorithm = "sha256"

	// XXH3 is the 128-bit xxh3 hash. Much faster, not collision resistant against adversaries.
	XXH3 Algorithm = "xxh3"

	// XXHash is the 64-bit xxHash64 hash.
	XXHash Algorithm = "xxhash"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = SHA256

// Algorithms lists every supported algorithm.
var Algorithms = []Algorithm{SHA256, XXH3, XXHash}

// ParseAlgorithm converts a configuration string into an Algorithm.
// The empty string selects DefaultAlgorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	if s == "" {
		return DefaultAlgorithm, nil
	}
	alg := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Algorithms, alg) {
		return "", fmt.Errorf("unknown hash algorithm %q (want one of sha256, xxh3, xxhash)", s)
	}
	return alg, nil
}

// Size returns the digest width in bytes, or 0 for an unknown algorithm.
func (a Algorithm) Size() int {
	switch a {
	case SHA256:
		return sha256.Size
	case XXH3:
		return 16
	case XXHash:
		return 8
	}
	return 0
}

// Digest is a fixed-width content digest.
type Digest []byte

// Hex returns the lowercase hex encoding of the digest.
func (d Digest) Hex() string { return hex.EncodeToString(d) }

func (d Digest) String() string { return d.Hex() }

// Equal reports whether two digests are byte-identical.
func (d Digest) Equal(other Digest) bool { return bytes.Equal(d, other) }

// MarshalJSON encodes the digest as a hex string.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

// UnmarshalJSON decodes a hex string.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid digest %q: %w", s, err)
	}
	*d = b
	return nil
}

// ChildDigest is one immediate entry of a directory as seen by HashDirectory.
type ChildDigest struct {
	Name    string
	Type    FileType
	Content ContentIdentity
}

// Hasher computes digests with a fixed algorithm.
// It holds no mutable state and may be shared between goroutines.
type Hasher struct {
	alg Algorithm
}

// NewHasher returns a Hasher for the given algorithm.
func NewHasher(alg Algorithm) (Hasher, error) {
	if alg.Size() == 0 {
		return Hasher{}, fmt.Errorf("unknown hash algorithm %q", alg)
	}
	return Hasher{alg: alg}, nil
}

// Algorithm returns the algorithm used by h.
func (h Hasher) Algorithm() Algorithm {
	if h.alg == "" {
		return DefaultAlgorithm
	}
	return h.alg
}

// HashBytes computes the digest of data.
func (h Hasher) HashBytes(data []byte) Digest {
	s := h.stream()
	_, _ = s.Write(data) // in-memory hash writers never fail
	return s.Sum(nil)
}

// HashReader computes the digest of everything read from r.
func (h Hasher) HashReader(r io.Reader) (Digest, error) {
	s := h.stream()
	if _, err := io.Copy(s, r); err != nil {
		return nil, err
	}
	return s.Sum(nil), nil
}

// HashFile computes the digest of the file's bytes.
// Any open or read failure is returned as an *UnreadableError.
func (h Hasher) HashFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	d, err := h.HashReader(f)
	if err != nil {
		return nil, &UnreadableError{Path: path, Err: err}
	}
	return d, nil
}

// HashDirectory computes a directory digest from its immediate children.
// Children are sorted by name first, so the result does not depend on
// enumeration order. Only names, types and child content take part;
// metadata such as modification time never does.
func (h Hasher) HashDirectory(children []ChildDigest) Digest {
	sorted := slices.Clone(children)
	slices.SortFunc(sorted, func(a, b ChildDigest) int {
		return strings.Compare(a.Name, b.Name)
	})

	s := h.stream()
	var buf [binary.MaxVarintLen64]byte
	writeBytes := func(b []byte) {
		n := binary.PutUvarint(buf[:], uint64(len(b)))
		_, _ = s.Write(buf[:n])
		_, _ = s.Write(b)
	}

	// Domain prefix keeps an empty directory distinct from an empty file.
	_, _ = s.Write([]byte("fsnap/dir/v1\x00"))
	for _, c := range sorted {
		writeBytes([]byte(c.Name))
		_, _ = s.Write([]byte{byte(c.Type), byte(c.Content.Kind())})
		writeBytes(c.Content.digest)
	}
	return s.Sum(nil)
}

func (h Hasher) stream() hash.Hash {
	switch h.Algorithm() {
	case XXH3:
		return &xxh3Stream{h: xxh3.New()}
	case XXHash:
		return xxhash.New()
	default:
		return sha256.New()
	}
}

// xxh3Stream adapts xxh3.Hasher to a 128-bit hash.Hash.
type xxh3Stream struct {
	h *xxh3.Hasher
}

func (s *xxh3Stream) Write(p []byte) (int, error) { return s.h.Write(p) }

func (s *xxh3Stream) Sum(b []byte) []byte {
	sum := s.h.Sum128().Bytes()
	return append(b, sum[:]...)
}

func (s *xxh3Stream) Reset()         { s.h.Reset() }
func (s *xxh3Stream) Size() int      { return 16 }
func (s *xxh3Stream) BlockSize() int { return 64 }
