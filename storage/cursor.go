package storage

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor is an opaque resume point returned by a paginated query: a mapping
// of attribute name to value identifying the last record seen. A nil cursor
// means "start from the beginning".
type Cursor map[string]string

// EncodeCursor renders the cursor in its URL-safe wire form. A nil or empty
// cursor encodes to the empty string.
func EncodeCursor(c Cursor) (string, error) {
	if len(c) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return base64.URLEncoding.EncodeToString(raw), nil
}

// DecodeCursor parses a cursor from its wire form. The empty string decodes
// to a nil cursor. Malformed input fails with ErrInvalidCursor.
func DecodeCursor(encoded string) (Cursor, error) {
	if encoded == "" {
		return nil, nil
	}

	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCursor, err)
	}
	if len(c) == 0 {
		return nil, fmt.Errorf("%w: empty cursor payload", ErrInvalidCursor)
	}
	return c, nil
}
