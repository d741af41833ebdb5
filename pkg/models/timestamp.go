package models

import (
	"bytes"
	"strconv"
	"time"
)

// Timestamp is an epoch-millisecond instant that tolerates the loose encodings callers use:
// numbers, numeric strings, RFC 3339 strings and null.
type Timestamp int64

// UnmarshalJSON implements json.Unmarshaler. Unparseable values decode to zero instead of failing the request.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = 0
		return nil
	}
	raw := string(bytes.Trim(data, `"`))
	if ms, err := strconv.ParseFloat(raw, 64); err == nil {
		*t = Timestamp(int64(ms))
		return nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		*t = Timestamp(ts.UnixMilli())
		return nil
	}
	*t = 0
	return nil
}
