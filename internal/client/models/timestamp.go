package models

import (
	"encoding/json"
	"time"
)

// Timestamp is a time.Time that travels as Unix milliseconds.
type Timestamp struct {
	time.Time
}

func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

func FromUnixMilli(ms int64) Timestamp {
	if ms == 0 {
		return Timestamp{}
	}
	return Timestamp{Time: time.UnixMilli(ms)}
}

func (t Timestamp) UnixMilli() int64 {
	if t.IsZero() {
		return 0
	}
	return t.Time.UnixMilli()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UnixMilli())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var ms *int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return err
	}
	if ms == nil {
		*t = Timestamp{}
		return nil
	}
	*t = FromUnixMilli(*ms)
	return nil
}
