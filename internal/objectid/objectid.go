// Package objectid allocates and parses 24-character hexadecimal record identifiers.
//
// Layout of a generated identifier (12 bytes, hex encoded):
//
//	4 bytes  unix seconds, big endian
//	5 bytes  random value picked once per process
//	3 bytes  counter, starts at a random value
package objectid

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"strings"
	"sync/atomic"
	"time"
)

// Length of the identifier in hex characters
const Length = 24

var ErrInvalidID = errors.New("identifier must be 24 hex characters")

// ID is a 24 lowercase hex characters identifier
type ID string

var (
	processUnique [5]byte
	counter       atomic.Uint32
)

func init() {
	var seed [4]byte
	if _, err := rand.Read(processUnique[:]); err != nil {
		panic("objectid: can't read random bytes: " + err.Error())
	}
	if _, err := rand.Read(seed[:]); err != nil {
		panic("objectid: can't read random bytes: " + err.Error())
	}
	counter.Store(binary.BigEndian.Uint32(seed[:]))
}

// New returns a fresh identifier for the current time
func New() ID {
	return NewAt(time.Now())
}

// NewAt returns a fresh identifier with timestamp part set to t
func NewAt(t time.Time) ID {
	var b [12]byte

	binary.BigEndian.PutUint32(b[0:4], uint32(t.Unix()))
	copy(b[4:9], processUnique[:])

	c := counter.Add(1)
	b[9] = byte(c >> 16)
	b[10] = byte(c >> 8)
	b[11] = byte(c)

	return ID(hex.EncodeToString(b[:]))
}

// Parse checks the identifier shape and normalizes it to lower case
func Parse(s string) (ID, error) {
	if !IsValid(s) {
		return "", ErrInvalidID
	}
	return ID(strings.ToLower(s)), nil
}

// IsValid reports whether s has the identifier shape: exactly 24 hex characters
func IsValid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Timestamp returns time encoded in the first 4 bytes of the identifier
func (id ID) Timestamp() (time.Time, error) {
	b, err := hex.DecodeString(string(id))
	if err != nil || len(b) != 12 {
		return time.Time{}, ErrInvalidID
	}
	return time.Unix(int64(binary.BigEndian.Uint32(b[0:4])), 0), nil
}

func (id ID) String() string {
	return string(id)
}
