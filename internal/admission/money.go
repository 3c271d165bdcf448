package admission

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in cents. JSON carries it as a decimal number of
// currency units; incoming values are rounded half away from zero to cents.
type Money int64

var maxCents = decimal.NewFromInt(math.MaxInt64 / 2)

func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid amount %v", f)
	}
	return fromDecimal(decimal.NewFromFloat(f))
}

// ParseMoney reads a decimal string such as "2000", "2000.5" or "-3.456".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(2).Shift(2)
	if cents.Abs().GreaterThan(maxCents) {
		return 0, fmt.Errorf("amount %s out of range", d)
	}
	return Money(cents.IntPart()), nil
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	var n json.Number
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*m = 0
			return nil
		}
		n = json.Number(s)
	} else if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number: %w", err)
	}
	v, err := ParseMoney(n.String())
	if err != nil {
		return err
	}
	*m = v
	return nil
}
