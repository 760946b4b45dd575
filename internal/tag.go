package internal

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
)

// ErrInvalidTag reports a jce struct tag whose id is not 0..255.
var ErrInvalidTag = errors.New("field id must be an integer in 0..255")

// FieldTag is a parsed `jce:"<id>[,omitempty]"` struct tag.
type FieldTag struct {
	ID        uint8
	OmitEmpty bool
}

// ParseFieldTag parses the jce tag on f. ok is false for fields that do
// not take part in encoding: unexported, untagged, or tagged "-".
func ParseFieldTag(f reflect.StructField) (ft FieldTag, ok bool, err error) {
	tag, found := f.Tag.Lookup("jce")
	if !found || tag == "-" || !f.IsExported() {
		return FieldTag{}, false, nil
	}
	parts := strings.Split(tag, ",")
	id, perr := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 8)
	if perr != nil {
		return FieldTag{}, false, ErrInvalidTag
	}
	ft.ID = uint8(id)
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) == "omitempty" {
			ft.OmitEmpty = true
		}
	}
	return ft, true, nil
}
