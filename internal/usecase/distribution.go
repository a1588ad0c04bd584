package usecase

import (
	"fmt"
	"math"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
)

// maxOrderCount caps every ladder at 100 orders regardless of policy.
const maxOrderCount = 100

// truncInt truncates toward zero, saturating at the 32-bit bounds.
// Saturated candidates are filtered out of the result, so a runaway
// geometric policy terminates instead of overflowing.
func truncInt(f float64) int {
	if f >= math.MaxInt32 {
		return math.MaxInt32
	}
	if f <= math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// BulkAmounts computes the ordered per-order quantities of a bulk ladder.
//
// It runs exactly maxOrderCount steps. Each step proposes a candidate per
// the selected policy; a candidate that would overrun the total amount,
// or (for MULT_MIN/DIV_AMOUNT termination semantics) falls below the
// minimum, contributes zero instead of being clamped. Zero and saturated
// candidates are dropped from the result, so the returned quantities sum
// to at most amount and every entry is at least the policy's floor.
func BulkAmounts(amount float64, distribution domain.BulkDistribution, parameter, minimumAmount float64) ([]int, error) {
	if amount < minimumAmount {
		return nil, fmt.Errorf("amount has to be at least the same as minimum amount (%v >= %v)", amount, minimumAmount)
	}

	last := 0
	total := 0

	amounts := make([]int, 0, maxOrderCount)
	for i := 0; i < maxOrderCount; i++ {
		if float64(total) >= amount {
			continue
		}

		var candidate int
		switch distribution {
		case domain.DistributionFlat:
			last = truncInt(math.Max(amount/maxOrderCount, minimumAmount))
			if float64(total+last) > amount {
				candidate = 0
			} else {
				total += last
				candidate = last
			}
		case domain.DistributionDivAmount:
			prev := float64(last)
			if total == 0 {
				prev = float64(truncInt(amount))
			}
			last = truncInt(prev / parameter)
			if float64(total+last) > amount || float64(last) < minimumAmount {
				candidate = 0
			} else {
				total += last
				candidate = last
			}
		case domain.DistributionMultMin:
			last = truncInt(math.Max(minimumAmount, float64(last)*parameter))
			if float64(total+last) > amount {
				candidate = 0
			} else {
				total += last
				candidate = last
			}
		default:
			return nil, fmt.Errorf("unknown bulk distribution %q", distribution)
		}

		if candidate > 0 && candidate != math.MaxInt32 {
			amounts = append(amounts, candidate)
		}
	}

	return amounts, nil
}
