package domain

import (
	"strings"
	"time"
)

// DiscountType enumerates how a coupon reduces an order total.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Coupon is a redeemable discount code.
type Coupon struct {
	ID            string       `bson:"_id,omitempty" json:"id"`
	Code          string       `bson:"code" json:"code"`
	DiscountType  DiscountType `bson:"discountType" json:"discountType"`
	DiscountValue float64      `bson:"discountValue" json:"discountValue"`
	MinPurchase   float64      `bson:"minPurchase" json:"minPurchase"`
	MaxDiscount   float64      `bson:"maxDiscount,omitempty" json:"maxDiscount,omitempty"`
	ValidFrom     time.Time    `bson:"validFrom" json:"validFrom"`
	ValidUntil    time.Time    `bson:"validUntil" json:"validUntil"`
	UsageLimit    int          `bson:"usageLimit" json:"usageLimit"`
	UsedCount     int          `bson:"usedCount" json:"usedCount"`
	IsActive      bool         `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time    `bson:"createdAt" json:"createdAt"`
}

// NormalizeCode canonicalizes a user-supplied coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DiscountFor returns the discount the coupon grants on the given subtotal,
// or an error when the coupon cannot be applied right now.
func (c Coupon) DiscountFor(subtotal float64, now time.Time) (float64, error) {
	if !c.IsActive {
		return 0, ErrCouponInvalid
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return 0, ErrCouponExpired
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return 0, ErrCouponExhausted
	}
	if subtotal < c.MinPurchase {
		return 0, ErrCouponInvalid
	}

	var discount float64
	switch c.DiscountType {
	case DiscountTypePercentage:
		discount = subtotal * c.DiscountValue / 100
		if c.MaxDiscount > 0 && discount > c.MaxDiscount {
			discount = c.MaxDiscount
		}
	case DiscountTypeFixed:
		discount = c.DiscountValue
	default:
		return 0, ErrCouponInvalid
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}
