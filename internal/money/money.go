package money

import "fmt"

// Cents is an exact integer amount of US cents. All engine math is done in
// cents so that batch rollups reproduce invoices without float drift.
type Cents int64

// Mul scales the amount by a factor, rounding half up.
// Used for allocation rates and discount application.
func (c Cents) Mul(factor float64) Cents {
    v := float64(c) * factor
    if v < 0 {
        return -Cents(-v + 0.5)
    }
    return Cents(v + 0.5)
}

// Percent applies a basis-point rate (100 bps = 1%), rounding half up.
func (c Cents) Percent(bps int) Cents {
    return c.Mul(float64(bps) / 10000)
}

// Discounted returns list price minus a basis-point discount.
func (c Cents) Discounted(discountBps int) Cents {
    return c.Mul(1 - float64(discountBps)/10000)
}

func (c Cents) String() string {
    sign := ""
    v := c
    if v < 0 {
        sign = "-"
        v = -v
    }
    return fmt.Sprintf("%s$%d.%02d", sign, v/100, v%100)
}
