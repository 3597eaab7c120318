package models

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURL = errors.New("invalid data URL")

// DecodeDataURL returns the bytes and media type of a base64 data URL such
// as "data:image/png;base64,iVBOR...".
func DecodeDataURL(s string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", ErrInvalidDataURL
	}
	b, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURL
	}
	return b, mediaType, nil
}

func EncodeDataURL(mediaType string, b []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(b)
}

type imageOp int

const (
	imageKeep imageOp = iota
	imageRemove
	imageSet
)

// ImageUpdate says what to do with an optional image: leave it, remove it,
// or replace it with a data URL. The zero value is ImageUnchanged.
type ImageUpdate struct {
	op      imageOp
	dataURL string
}

var (
	ImageUnchanged = ImageUpdate{op: imageKeep}
	ImageRemove    = ImageUpdate{op: imageRemove}
)

func ImageSet(dataURL string) ImageUpdate {
	return ImageUpdate{op: imageSet, dataURL: dataURL}
}

func (u ImageUpdate) IsUnchanged() bool { return u.op == imageKeep }

// AddTo writes the update into a command params object under key: nothing
// when unchanged, JSON null when removed, the raw bytes when set.
func (u ImageUpdate) AddTo(params map[string]any, key string) error {
	switch u.op {
	case imageRemove:
		params[key] = nil
	case imageSet:
		b, _, err := DecodeDataURL(u.dataURL)
		if err != nil {
			return err
		}
		params[key] = b
	}
	return nil
}

// Apply returns the image a mirror should hold after the update.
func (u ImageUpdate) Apply(current *string) *string {
	switch u.op {
	case imageRemove:
		return nil
	case imageSet:
		s := u.dataURL
		return &s
	default:
		return current
	}
}
