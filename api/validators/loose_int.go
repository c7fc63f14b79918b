package validators

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// LooseInt decodes numbers, numeric strings and booleans into an int,
// truncating fractions. Anything it cannot read decodes as zero instead of
// failing the whole body. Magnitudes beyond int32 saturate.
type LooseInt int

func (n *LooseInt) UnmarshalJSON(data []byte) error {
	*n = 0
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}

	var text string
	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &text); err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
	case 't':
		if string(data) == "true" {
			*n = 1
		}
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		text = string(data)
	default:
		return nil
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) {
		return nil
	}
	f = math.Trunc(f)
	switch {
	case f > math.MaxInt32:
		*n = math.MaxInt32
	case f < math.MinInt32:
		*n = math.MinInt32
	default:
		*n = LooseInt(f)
	}
	return nil
}
