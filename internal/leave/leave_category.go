package leave

import (
	"database/sql/driver"
	"fmt"
)

// LeaveCategory is the closed set of leave types. Accrual categories draw
// down a finite yearly balance; non-accrual categories have no ceiling and
// no balance row at all.
type LeaveCategory string

const (
	CategoryAnnual LeaveCategory = "ANNUAL"
	CategorySick   LeaveCategory = "SICK"
	CategoryUnpaid LeaveCategory = "UNPAID"
	CategoryOther  LeaveCategory = "OTHER"
)

func ParseCategory(v string) (LeaveCategory, error) {
	c := LeaveCategory(v)
	if !c.Valid() {
		return "", fmt.Errorf("unknown leave category %q", v)
	}
	return c, nil
}

func (c LeaveCategory) Valid() bool {
	switch c {
	case CategoryAnnual, CategorySick, CategoryUnpaid, CategoryOther:
		return true
	}
	return false
}

// Accrual reports whether requests in this category must be authorized
// against a provisioned yearly balance.
func (c LeaveCategory) Accrual() bool {
	return c == CategoryAnnual || c == CategorySick
}

func (c LeaveCategory) String() string { return string(c) }

func (c *LeaveCategory) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into LeaveCategory", value)
	}
	parsed, err := ParseCategory(raw)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c LeaveCategory) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid leave category %q", string(c))
	}
	return string(c), nil
}
