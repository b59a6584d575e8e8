package sim

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultPayloadKg is used when an order's weight text carries no usable
// number.
const DefaultPayloadKg = 2.0

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseWeightKg reads the leading decimal number of free-form weight text
// such as "2.4 kg" or "3kg". Text without a positive finite leading number
// yields DefaultPayloadKg. It never fails.
func ParseWeightKg(text string) float64 {
	num := leadingNumber.FindString(strings.TrimSpace(text))
	if num == "" {
		return DefaultPayloadKg
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return DefaultPayloadKg
	}
	return v
}
