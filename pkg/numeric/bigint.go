// Package numeric provides an arbitrary-precision signed integer that
// persists as a database numeric column. Reward-share accounting multiplies
// 18-decimal payment amounts by curve multipliers, which does not fit int64.
package numeric

import (
	"database/sql/driver"
	"fmt"
	"math/big"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Int wraps math/big.Int with sql.Scanner/driver.Valuer support.
// The zero value is ready to use and reads as 0.
type Int struct {
	v big.Int
}

// NewInt returns an Int holding x.
func NewInt(x int64) Int {
	var n Int
	n.v.SetInt64(x)
	return n
}

// FromBig copies b into a new Int. A nil b reads as 0.
func FromBig(b *big.Int) Int {
	var n Int
	if b != nil {
		n.v.Set(b)
	}
	return n
}

// Big returns a copy of the underlying value, safe to mutate.
func (n Int) Big() *big.Int {
	return new(big.Int).Set(&n.v)
}

// Set replaces the value with b.
func (n *Int) Set(b *big.Int) {
	if b == nil {
		n.v.SetInt64(0)
		return
	}
	n.v.Set(b)
}

func (n Int) String() string { return n.v.String() }

func (n Int) Sign() int { return n.v.Sign() }

func (n Int) IsZero() bool { return n.v.Sign() == 0 }

// Int64 narrows the value, reporting whether it fits.
func (n Int) Int64() (int64, bool) {
	if !n.v.IsInt64() {
		return 0, false
	}
	return n.v.Int64(), true
}

func (n Int) Cmp(o Int) int { return n.v.Cmp(&o.v) }

// Scan implements sql.Scanner. Numeric columns arrive as []byte, string or
// int64 depending on the driver.
func (n *Int) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.v.SetInt64(0)
		return nil
	case int64:
		n.v.SetInt64(v)
		return nil
	case []byte:
		return n.setString(string(v))
	case string:
		return n.setString(v)
	default:
		return fmt.Errorf("numeric: cannot scan %T", src)
	}
}

func (n *Int) setString(s string) error {
	if s == "" {
		n.v.SetInt64(0)
		return nil
	}
	if _, ok := n.v.SetString(s, 10); !ok {
		return fmt.Errorf("numeric: invalid integer %q", s)
	}
	return nil
}

// Value implements driver.Valuer, emitting the decimal representation.
func (n Int) Value() (driver.Value, error) {
	return n.v.String(), nil
}

// GormDBDataType maps the column type per dialect. sqlite gets TEXT: any
// NUMERIC-affinity column there would coerce large values to 8-byte floats,
// destroying precision past 2^53, while TEXT keeps the decimal string intact.
func (Int) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres", "mysql":
		return "numeric(78,0)"
	default:
		return "text"
	}
}

// MarshalJSON renders the value as a JSON string so 256-bit magnitudes
// survive clients that parse numbers as float64.
func (n Int) MarshalJSON() ([]byte, error) {
	return []byte(`"` + n.v.String() + `"`), nil
}

// UnmarshalJSON accepts both string and bare number forms.
func (n *Int) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "null" {
		n.v.SetInt64(0)
		return nil
	}
	return n.setString(s)
}
