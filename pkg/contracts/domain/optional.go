package domain

import (
	"math"
	"strconv"
)

// OptionalFloat is a numeric value that may be missing. Missing is distinct
// from zero and must stay missing until an output explicitly asks for a default.
type OptionalFloat struct {
	Value float64
	Valid bool
}

// Some wraps a present value
func Some(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Valid: true}
}

// Missing returns the missing marker
func Missing() OptionalFloat {
	return OptionalFloat{}
}

// OrZero returns the value, or 0 when missing
func (o OptionalFloat) OrZero() float64 {
	if !o.Valid {
		return 0
	}
	return o.Value
}

// Ptr returns nil when missing
func (o OptionalFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// String formats the value with the shortest exact representation, or "" when missing
func (o OptionalFloat) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}

// ParseReadingValue interprets a raw cell as a pollutant value. Anything that
// is not a finite non-negative number is missing.
func ParseReadingValue(raw string) OptionalFloat {
	v, err := strconv.ParseFloat(trimCell(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Missing()
	}
	return Some(v)
}
