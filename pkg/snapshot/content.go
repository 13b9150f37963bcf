package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ContentKind discriminates present content from missing content.
type ContentKind uint8

const (
	ContentMissing ContentKind = iota
	ContentPresent
)

func (k ContentKind) String() string {
	if k == ContentPresent {
		return "present"
	}
	return "missing"
}

// missingJSON is the serialized form of missing content.
const missingJSON = "missing"

// ContentIdentity is the hash-based fingerprint of a file or directory.
// The zero value is missing content.
type ContentIdentity struct {
	kind   ContentKind
	digest Digest
}

// Present returns the identity of content with the given digest.
// The digest is copied so later changes to d do not leak in.
func Present(d Digest) ContentIdentity {
	return ContentIdentity{kind: ContentPresent, digest: bytes.Clone(d)}
}

// Missing returns the identity of absent or unreadable content.
func Missing() ContentIdentity {
	return ContentIdentity{}
}

// Kind returns whether the content is present or missing.
func (c ContentIdentity) Kind() ContentKind { return c.kind }

// IsMissing reports whether c has no content.
func (c ContentIdentity) IsMissing() bool { return c.kind == ContentMissing }

// Digest returns a copy of the digest, or nil for missing content.
func (c ContentIdentity) Digest() Digest {
	if c.kind == ContentMissing {
		return nil
	}
	return bytes.Clone(c.digest)
}

// Equal reports whether both are missing, or both present with identical digests.
func (c ContentIdentity) Equal(other ContentIdentity) bool {
	if c.kind != other.kind {
		return false
	}
	if c.kind == ContentMissing {
		return true
	}
	return bytes.Equal(c.digest, other.digest)
}

// Compare orders missing content before present content, then by digest bytes.
func (c ContentIdentity) Compare(other ContentIdentity) int {
	if c.kind != other.kind {
		if c.kind == ContentMissing {
			return -1
		}
		return 1
	}
	if c.kind == ContentMissing {
		return 0
	}
	return bytes.Compare(c.digest, other.digest)
}

func (c ContentIdentity) String() string {
	if c.kind == ContentMissing {
		return missingJSON
	}
	return c.digest.Hex()
}

// MarshalJSON encodes missing content as "missing" and present content as its hex digest.
func (c ContentIdentity) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON reverses MarshalJSON.
func (c *ContentIdentity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == missingJSON {
		*c = Missing()
		return nil
	}
	var d Digest
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if len(d) == 0 {
		return fmt.Errorf("empty digest for present content")
	}
	*c = ContentIdentity{kind: ContentPresent, digest: d}
	return nil
}
