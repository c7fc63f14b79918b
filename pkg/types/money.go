package types

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor units (cents). On the wire it is a decimal number
// with two fractional digits, e.g. 12.50.
type Money int64

// MoneyFromDecimal rounds d half-away-from-zero to whole cents.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(2).Round(0).IntPart())
}

// ParseMoney parses a decimal string such as "19.99".
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return MoneyFromDecimal(d), nil
}

func (m Money) Cents() int64 {
	return int64(m)
}

func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Shift(-2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*m = 0
		return nil
	}
	parsed, err := ParseMoney(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
