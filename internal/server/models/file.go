// Package models defines the gateway's records. The same structs are used as
// database rows and, once decrypted by the services, as command results.
package models

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ImageChange is the decoded form of an optional image parameter: a missing
// key leaves the image alone, JSON null removes it, a base64 string sets it.
type ImageChange struct {
	Present bool
	Data    []byte
}

func (c ImageChange) Remove() bool { return c.Present && c.Data == nil }

func (c ImageChange) Set() bool { return c.Present && c.Data != nil }

// UnmarshalJSON only runs when the key is present, which is what makes the
// missing and null cases distinguishable.
func (c *ImageChange) UnmarshalJSON(b []byte) error {
	c.Present = true
	if string(b) == "null" {
		c.Data = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("image must be base64 or null: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("image must be base64 or null: %w", err)
	}
	if len(data) == 0 {
		return fmt.Errorf("image is empty")
	}
	c.Data = data
	return nil
}
