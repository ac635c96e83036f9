package pipeline

import (
	"encoding/hex"
	"strconv"

	"github.com/DMarby/instafilter/internal/filter"
	"github.com/twmb/murmur3"
)

// RenderKey identifies an output by everything it depends on:
// the source, the filter, the values of the controls the filter recognizes, and the output format
func RenderKey(sourceDigest, filterName string, applied []filter.Control, controls filter.Controls, format Format) string {
	h := murmur3.New128()
	h.Write([]byte(sourceDigest))
	h.Write([]byte{0})
	h.Write([]byte(filterName))

	for _, control := range applied {
		h.Write([]byte{0})
		h.Write([]byte(control))
		h.Write([]byte{'='})
		h.Write([]byte(strconv.FormatFloat(controls.Value(control), 'g', -1, 64)))
	}

	h.Write([]byte{0})
	h.Write([]byte(format))

	return hex.EncodeToString(h.Sum(nil))
}
