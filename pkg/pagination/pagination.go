package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

var errMalformedCursor = errors.New("malformed cursor")

// Cursor is a keyset position: the next page holds rows strictly after
// (CreatedAt, ID) in newest-first order.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

// Page is one slice of a keyset-paginated listing. NextCursor is empty on
// the last page.
type Page[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// NormalizeLimit clamps limit into [1, MaxLimit], mapping non-positive values
// to DefaultLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer is the row count to fetch: one extra row tells BuildPage
// whether another page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// BuildPage maps up to limit rows fetched with LimitWithBuffer and sets
// NextCursor from the last kept row when the buffer row came back.
func BuildPage[R, T any](rows []R, limit int, cursorOf func(R) Cursor, mapFn func(R) T) Page[T] {
	limit = NormalizeLimit(limit)
	more := len(rows) > limit
	if more {
		rows = rows[:limit]
	}
	page := Page[T]{Items: make([]T, len(rows))}
	for i, row := range rows {
		page.Items[i] = mapFn(row)
	}
	if more {
		page.NextCursor = EncodeCursor(cursorOf(rows[len(rows)-1]))
	}
	return page
}

// EncodeCursor renders c as opaque URL-safe text.
func EncodeCursor(c Cursor) string {
	c.CreatedAt = c.CreatedAt.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor reverses EncodeCursor. Blank input means "first page" and
// yields nil.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	if c.ID == uuid.Nil || c.CreatedAt.IsZero() {
		return nil, errMalformedCursor
	}
	return &c, nil
}
