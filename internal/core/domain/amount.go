package domain

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var amountPattern = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

var (
	ErrMalformedAmount = errors.New("amount is not a decimal number")
	ErrAmountPrecision = errors.New("amount has more fractional digits than the asset allows")
)

// AssetAmount is a fixed-scale decimal bound to one asset symbol. Arithmetic
// between two different assets panics: it is a programming error, never a
// user error.
type AssetAmount struct {
	value decimal.Decimal
	asset string
	scale int32
}

// ParseAmount validates untrusted input.
func ParseAmount(raw, asset string, scale int32) (AssetAmount, error) {
	if !amountPattern.MatchString(raw) {
		return AssetAmount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return AssetAmount{}, fmt.Errorf("%w: %q", ErrMalformedAmount, raw)
	}
	if !d.Equal(d.Round(scale)) {
		return AssetAmount{}, fmt.Errorf("%w: %q (scale %d)", ErrAmountPrecision, raw, scale)
	}
	return AssetAmount{value: d, asset: asset, scale: scale}, nil
}

// FromPersisted rebuilds an amount from a value previously written by
// ToPersisted.
func FromPersisted(raw, asset string, scale int32) (AssetAmount, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return AssetAmount{}, fmt.Errorf("persisted %s amount %q: %w", asset, raw, err)
	}
	return AssetAmount{value: d, asset: asset, scale: scale}, nil
}

// ZeroAmount returns zero of the given asset.
func ZeroAmount(asset string, scale int32) AssetAmount {
	return AssetAmount{value: decimal.Zero, asset: asset, scale: scale}
}

func (a AssetAmount) Asset() string { return a.asset }
func (a AssetAmount) Scale() int32  { return a.scale }

func (a AssetAmount) Add(b AssetAmount) AssetAmount {
	a.mustMatch(b)
	return AssetAmount{value: a.value.Add(b.value), asset: a.asset, scale: a.scale}
}

func (a AssetAmount) Sub(b AssetAmount) AssetAmount {
	a.mustMatch(b)
	return AssetAmount{value: a.value.Sub(b.value), asset: a.asset, scale: a.scale}
}

func (a AssetAmount) GreaterThan(b AssetAmount) bool {
	a.mustMatch(b)
	return a.value.GreaterThan(b.value)
}

func (a AssetAmount) LessThan(b AssetAmount) bool {
	a.mustMatch(b)
	return a.value.LessThan(b.value)
}

// Equal compares value and asset. Trailing zeros are ignored.
func (a AssetAmount) Equal(b AssetAmount) bool {
	return a.asset == b.asset && a.value.Equal(b.value)
}

func (a AssetAmount) IsPositive() bool { return a.value.IsPositive() }
func (a AssetAmount) IsNegative() bool { return a.value.IsNegative() }
func (a AssetAmount) IsZero() bool     { return a.value.IsZero() }

// ToPersisted returns the canonical fixed-point string stored in the ledger.
func (a AssetAmount) ToPersisted() string {
	return a.value.StringFixed(a.scale)
}

// ToMinorUnits returns the amount as an integer count of the smallest unit.
func (a AssetAmount) ToMinorUnits() int64 {
	return a.value.Shift(a.scale).Round(0).IntPart()
}

func (a AssetAmount) String() string {
	return a.ToPersisted() + " " + a.asset
}

func (a AssetAmount) mustMatch(b AssetAmount) {
	if a.asset != b.asset {
		panic(fmt.Sprintf("asset mismatch: %s vs %s", a.asset, b.asset))
	}
}
