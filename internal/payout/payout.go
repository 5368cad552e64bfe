// Package payout splits a bet's pool among the participants who predicted
// the outcome. All arithmetic is done in whole cents so the pool is always
// conserved exactly.
package payout

import (
	"bytes"
	"math/big"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stake is one participant's position as seen by the settlement.
type Stake struct {
	ParticipantID uuid.UUID
	UserID        uuid.UUID
	Prediction    bool
	Amount        decimal.Decimal
	CreatedAt     time.Time
}

// Payout is a credit owed to one participant.
type Payout struct {
	ParticipantID uuid.UUID
	UserID        uuid.UUID
	Stake         decimal.Decimal
	Amount        decimal.Decimal
	Refund        bool
}

// Settlement is the full result of settling one bet.
type Settlement struct {
	Outcome      bool
	TotalPool    decimal.Decimal
	WinningTotal decimal.Decimal
	Payouts      []Payout
	WinnersCount int
	// Refunded is set when nobody backed the outcome and every stake was
	// returned instead.
	Refunded bool
}

// TotalPaid sums every payout in the settlement.
func (s Settlement) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Payouts {
		total = total.Add(p.Amount)
	}
	return total
}

// SideTotals returns the amount staked on yes and on no.
func SideTotals(stakes []Stake) (yes, no decimal.Decimal) {
	yes, no = decimal.Zero, decimal.Zero
	for _, s := range stakes {
		if s.Prediction {
			yes = yes.Add(s.Amount)
		} else {
			no = no.Add(s.Amount)
		}
	}
	return yes, no
}

// Compute settles stakes for outcome.
//
// Each winner receives stake * pool / winningTotal truncated to the cent.
// The cents lost to truncation (fewer than the number of winners) go one at
// a time to winners ordered by larger stake, then earlier stake, then id, so
// the payouts always sum to the pool. When no stake backed the outcome every
// participant gets their stake back.
func Compute(stakes []Stake, outcome bool) Settlement {
	yes, no := SideTotals(stakes)
	pool := yes.Add(no)
	winning := no
	if outcome {
		winning = yes
	}

	s := Settlement{Outcome: outcome, TotalPool: pool, WinningTotal: winning}
	if !pool.IsPositive() {
		return s
	}

	if !winning.IsPositive() {
		s.Refunded = true
		for _, st := range stakes {
			s.Payouts = append(s.Payouts, Payout{
				ParticipantID: st.ParticipantID,
				UserID:        st.UserID,
				Stake:         st.Amount,
				Amount:        st.Amount,
				Refund:        true,
			})
		}
		return s
	}

	winners := make([]Stake, 0, len(stakes))
	for _, st := range stakes {
		if st.Prediction == outcome && st.Amount.IsPositive() {
			winners = append(winners, st)
		}
	}
	sort.SliceStable(winners, func(i, j int) bool {
		a, b := winners[i], winners[j]
		if c := a.Amount.Cmp(b.Amount); c != 0 {
			return c > 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return bytes.Compare(a.ParticipantID[:], b.ParticipantID[:]) < 0
	})

	poolCents := toCents(pool)
	winningCents := toCents(winning)

	shares := make([]*big.Int, len(winners))
	distributed := new(big.Int)
	for i, w := range winners {
		share := new(big.Int).Mul(toCents(w.Amount), poolCents)
		share.Quo(share, winningCents)
		shares[i] = share
		distributed.Add(distributed, share)
	}

	leftover := new(big.Int).Sub(poolCents, distributed).Int64()
	one := big.NewInt(1)
	for i := 0; leftover > 0; i, leftover = i+1, leftover-1 {
		shares[i%len(shares)].Add(shares[i%len(shares)], one)
	}

	for i, w := range winners {
		s.Payouts = append(s.Payouts, Payout{
			ParticipantID: w.ParticipantID,
			UserID:        w.UserID,
			Stake:         w.Amount,
			Amount:        decimal.NewFromBigInt(shares[i], -2),
		})
	}
	s.WinnersCount = len(winners)
	return s
}

// Multipliers returns the gross return per credit staked on each side if
// that side wins (pool / side). A side nobody has backed reports zero.
func Multipliers(yes, no decimal.Decimal) (onYes, onNo decimal.Decimal) {
	pool := yes.Add(no)
	onYes, onNo = decimal.Zero, decimal.Zero
	if yes.IsPositive() {
		onYes = pool.DivRound(yes, 4)
	}
	if no.IsPositive() {
		onNo = pool.DivRound(no, 4)
	}
	return onYes, onNo
}

func toCents(d decimal.Decimal) *big.Int {
	return d.Shift(2).BigInt()
}
