package git

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ObjectHashSHA1 is the implementation of an object ID via SHA1.
	ObjectHashSHA1 = ObjectHash{
		regexp:       regexp.MustCompile(`\A[0-9a-f]{40}\z`),
		EmptyTreeOID: ObjectID("4b825dc642cb6eb9a060e54bf8d69288fbee4904"),
		ZeroOID:      ObjectID("0000000000000000000000000000000000000000"),
	}

	// ErrInvalidObjectID is returned in case an object ID's string
	// representation is not a valid one.
	ErrInvalidObjectID = errors.New("invalid object ID")
)

// DefaultAbbrevLength is the number of hex digits used when abbreviating object IDs for display.
const DefaultAbbrevLength = 8

// ObjectHash is a hash-function specific implementation of an object ID.
type ObjectHash struct {
	regexp *regexp.Regexp
	// EmptyTreeOID is the object ID of the tree object that has no directory entries.
	EmptyTreeOID ObjectID
	// ZeroOID is the special value that Git uses to signal a ref or object does not exist
	ZeroOID ObjectID
}

// FromHex constructs a new ObjectID from the given hex representation of the object ID. Returns
// ErrInvalidObjectID if the given object ID is not valid.
func (h ObjectHash) FromHex(hex string) (ObjectID, error) {
	if err := h.ValidateHex(hex); err != nil {
		return "", err
	}

	return ObjectID(hex), nil
}

// ValidateHex checks if `hex` is a syntactically correct object ID for the given hash. Abbreviated
// object IDs are not deemed to be valid. Returns an `ErrInvalidObjectID` if the `hex` is not valid.
func (h ObjectHash) ValidateHex(hex string) error {
	if h.regexp.MatchString(hex) {
		return nil
	}

	return fmt.Errorf("%w: %q", ErrInvalidObjectID, hex)
}

// IsZeroOID checks whether the given object ID is the all-zeroes object ID for the given hash.
func (h ObjectHash) IsZeroOID(oid ObjectID) bool {
	return string(oid) == string(h.ZeroOID)
}

// ObjectID represents an object ID.
type ObjectID string

// String returns the hex representation of the ObjectID.
func (oid ObjectID) String() string {
	return string(oid)
}

// Revision returns a revision of the ObjectID. This directly returns the hex
// representation as every object ID is a valid revision.
func (oid ObjectID) Revision() Revision {
	return Revision(oid.String())
}

// IsEmpty returns whether the object ID is unset. An unset ID is used to signal an absent
// object, for example the ancestor tree of a root commit.
func (oid ObjectID) IsEmpty() bool {
	return oid == ""
}

// Abbreviate returns the first n hex digits of the object ID. The full ID is returned if it is
// shorter than n or if n is not positive.
func (oid ObjectID) Abbreviate(n int) string {
	if n <= 0 || len(oid) <= n {
		return string(oid)
	}
	return string(oid[:n])
}
