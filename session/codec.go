package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrRecordCorrupt is returned by Decode for any payload that cannot be
// trusted: invalid JSON, missing fields, or timestamps that violate the
// record ordering invariant. Callers treat it identically to an expired
// session.
var ErrRecordCorrupt = errors.New("session record corrupt")

// Encode serializes a record to its stored JSON form.
func Encode(rec *Record) (string, error) {
	if rec == nil {
		return "", ErrRecordCorrupt
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	return string(data), nil
}

// Decode parses and validates a stored record. Any structural defect maps
// to [ErrRecordCorrupt]; the caller clears the key and reports no session.
func Decode(data string) (*Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecordCorrupt, err)
	}
	if rec.Token == "" || rec.User.ID == "" {
		return nil, fmt.Errorf("%w: missing token or user", ErrRecordCorrupt)
	}
	if rec.CreatedAt <= 0 || rec.LastActivityAt <= 0 || rec.ExpiresAt <= 0 {
		return nil, fmt.Errorf("%w: missing timestamps", ErrRecordCorrupt)
	}
	if rec.CreatedAt > rec.LastActivityAt || rec.LastActivityAt > rec.ExpiresAt {
		return nil, fmt.Errorf("%w: timestamp order violated", ErrRecordCorrupt)
	}
	return &rec, nil
}
