package usecase

import (
	"github.com/google/uuid"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
)

// LadderParams describes a bulk ladder: a total amount spread across the
// [PriceLow, PriceHigh] range using a quantity-distribution policy.
type LadderParams struct {
	Pair          domain.CurrencyPair
	Side          domain.Side
	Amount        float64
	MinimumAmount float64
	PriceLow      float64
	PriceHigh     float64
	Distribution  domain.BulkDistribution
	Parameter     float64
	PostOnly      bool
	ReduceOnly    bool
	// Reversed applies the quantity sequence back-to-front against the
	// same ascending price ladder.
	Reversed bool
	// TagClientIDs stamps each rung with a generated client order id.
	TagClientIDs bool
}

// BuildLadder computes the quantities via BulkAmounts and pairs them with
// linearly interpolated, half-unit quantized prices across the range,
// inclusive of both endpoints. A single-order ladder rests at PriceLow;
// the interpolation step is undefined for one order, and the low end is
// where the lone order of an amount==minimum request belongs.
func BuildLadder(p LadderParams) ([]domain.LadderOrder, error) {
	amounts, err := BulkAmounts(p.Amount, p.Distribution, p.Parameter, p.MinimumAmount)
	if err != nil {
		return nil, err
	}
	if p.Reversed {
		for i, j := 0, len(amounts)-1; i < j; i, j = i+1, j-1 {
			amounts[i], amounts[j] = amounts[j], amounts[i]
		}
	}

	symbol := p.Pair.ToSymbol()
	execInst := JoinExecInstructions(p.PostOnly, p.ReduceOnly)

	orders := make([]domain.LadderOrder, len(amounts))
	for i, amountForOrder := range amounts {
		price := p.PriceLow
		if len(amounts) > 1 {
			price += (p.PriceHigh - p.PriceLow) / float64(len(amounts)-1) * float64(i)
		}

		var clOrdID string
		if p.TagClientIDs {
			clOrdID = uuid.NewString()
		}

		orders[i] = domain.LadderOrder{
			Symbol:   symbol,
			Side:     p.Side.Label(),
			Quantity: amountForOrder,
			Price:    RoundToHalf(price),
			ClOrdID:  clOrdID,
			ExecInst: execInst,
		}
	}
	return orders, nil
}
