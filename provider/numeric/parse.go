// Package numeric converts loosely formatted source values into rates.
// Zero, blanks and placeholders yield an absent rate, never a literal zero
package numeric

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

var separatorReplacer = strings.NewReplacer(
	",", "",
	" ", "",
	"\u00a0", "",
	"\u202f", "",
)

// Parse converts the given string or number into a rate.
// It never fails: anything that does not describe a nonzero
// number is reported as an invalid (absent) decimal
func Parse(value any) decimal.NullDecimal {
	switch v := value.(type) {
	case nil:
		return decimal.NullDecimal{}
	case string:
		return ParseString(v)
	case json.Number:
		return ParseString(v.String())
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.NullDecimal{}
		}

		return nonZero(decimal.NewFromFloat(v))
	case float32:
		return Parse(float64(v))
	case int:
		return nonZero(decimal.NewFromInt(int64(v)))
	case int64:
		return nonZero(decimal.NewFromInt(v))
	case decimal.Decimal:
		return nonZero(v)
	default:
		return parseInteger(reflect.ValueOf(value))
	}
}

// parseInteger handles the remaining sized and unsigned integer kinds
func parseInteger(v reflect.Value) decimal.NullDecimal {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return nonZero(decimal.NewFromInt(v.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return nonZero(decimal.NewFromBigInt(new(big.Int).SetUint64(v.Uint()), 0))
	default:
		return decimal.NullDecimal{}
	}
}

// ParseString parses a textual rate, dropping thousands separators
// (commas and spaces) and treating "", "-" and "0" as absent
func ParseString(s string) decimal.NullDecimal {
	s = separatorReplacer.Replace(strings.TrimSpace(s))

	switch s {
	case "", "-", "0":
		return decimal.NullDecimal{}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}

	return nonZero(d)
}

func nonZero(d decimal.Decimal) decimal.NullDecimal {
	if d.IsZero() {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(d)
}
