package editor

import (
	"testing"

	"trove_go/internal/domain"
	"trove_go/internal/validation"
	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return quant.MustParse(s) }

func openTrove() domain.Trove { return domain.NewTrove(dec("3"), dec("2000")) }

func TestEditor_Clean(t *testing.T) {
	e := New(openTrove(), domain.DefaultParams())

	require.False(t, e.IsDirty())
	require.True(t, e.NetDebt().Equal(dec("1800")))
	require.True(t, e.Fee(dec("0.005")).IsZero())
	require.True(t, e.Edited(dec("0.005")).Equal(openTrove()))
}

func TestEditor_BorrowAddsFee(t *testing.T) {
	e := New(openTrove(), domain.DefaultParams())
	require.NoError(t, e.SetNetDebt(dec("2001")))

	rate := dec("0.005")
	require.True(t, e.IsDirty())
	require.True(t, e.DebtIncrease().Equal(dec("201")))
	// 201 / 1.005 = 200 borrowed, fee 1
	require.True(t, e.Fee(rate).Equal(dec("1")), "fee %s", e.Fee(rate))
	require.True(t, e.TotalDebt(rate).Equal(dec("2202")))
	require.True(t, e.Edited(rate).Equal(domain.NewTrove(dec("3"), dec("2202"))))
}

func TestEditor_RepayHasNoFee(t *testing.T) {
	e := New(openTrove(), domain.DefaultParams())
	require.NoError(t, e.SetNetDebt(dec("1500")))
	require.True(t, e.Fee(dec("0.05")).IsZero())
	require.True(t, e.TotalDebt(dec("0.05")).Equal(dec("1700")))
}

func TestEditor_SetNegative(t *testing.T) {
	e := New(openTrove(), domain.DefaultParams())
	require.ErrorIs(t, e.SetCollateral(dec("1").Neg()), quant.ErrNegative)
	require.ErrorIs(t, e.SetNetDebt(dec("1").Neg()), quant.ErrNegative)
}

func TestEditor_MaxCollateral(t *testing.T) {
	e := New(openTrove(), domain.DefaultParams())

	require.True(t, e.MaxCollateral(dec("1")).Equal(dec("3.9")))
	require.True(t, e.MaxCollateral(dec("0.05")).Equal(dec("3")))

	require.NoError(t, e.SetCollateral(dec("3.9")))
	require.True(t, e.CollateralMaxedOut(dec("1")))
	require.True(t, MaxBorrowingRate(dec("0.005")).Equal(dec("0.01")))
}

func TestEditor_CollateralRatio(t *testing.T) {
	e := New(openTrove(), domain.DefaultParams())
	price := dec("1000")

	require.NoError(t, e.SetCollateral(dec("4")))
	ratio, ok := e.CollateralRatio(price, decimal.Zero)
	require.True(t, ok)
	require.True(t, ratio.Equal(dec("2")))

	delta, ok := e.CollateralRatioChange(price, decimal.Zero)
	require.True(t, ok)
	require.True(t, delta.Equal(dec("0.5")))

	require.NoError(t, e.SetNetDebt(decimal.Zero))
	_, ok = e.CollateralRatio(price, decimal.Zero)
	require.False(t, ok)
}

func TestEditor_Rebase(t *testing.T) {
	t.Run("carries unsaved increase", func(t *testing.T) {
		e := New(openTrove(), domain.DefaultParams())
		// +1 collateral, -100 debt
		require.NoError(t, e.SetCollateral(dec("4")))
		require.NoError(t, e.SetNetDebt(dec("1700")))

		e.Rebase(domain.NewTrove(dec("5"), dec("2500")))

		require.True(t, e.Collateral().Equal(dec("6")))
		require.True(t, e.NetDebt().Equal(dec("2200")))
		require.True(t, e.Trove().Equal(domain.NewTrove(dec("5"), dec("2500"))))
	})

	t.Run("drops decrease that no longer fits", func(t *testing.T) {
		e := New(openTrove(), domain.DefaultParams())
		require.NoError(t, e.SetCollateral(dec("1"))) // -2

		e.Rebase(domain.NewTrove(dec("1.5"), dec("2000")))

		require.True(t, e.Collateral().Equal(dec("1.5")))
		require.True(t, e.NetDebt().Equal(dec("1800")))
		require.False(t, e.IsDirty())
	})

	t.Run("unchanged side keeps edit", func(t *testing.T) {
		e := New(openTrove(), domain.DefaultParams())
		require.NoError(t, e.SetNetDebt(dec("2500")))

		e.Rebase(domain.NewTrove(dec("4"), dec("2000")))

		require.True(t, e.Collateral().Equal(dec("4")))
		require.True(t, e.NetDebt().Equal(dec("2500")))
	})
}

func TestEditor_Validate(t *testing.T) {
	v := validation.NewValidator(domain.DefaultParams())
	state := validation.State{
		Price:          dec("1000"),
		Total:          domain.NewTrove(dec("100"), dec("20000")),
		AccountBalance: dec("10"),
		LUSDBalance:    dec("5000"),
		NumberOfTroves: 5,
	}

	e := New(openTrove(), domain.DefaultParams())
	res, err := e.Validate(v, dec("0.005"), state)
	require.NoError(t, err)
	require.True(t, res.NoChange())

	require.NoError(t, e.SetCollateral(dec("4")))
	require.NoError(t, e.SetNetDebt(dec("2001")))
	res, err = e.Validate(v, dec("0.005"), state)
	require.NoError(t, err)
	require.True(t, res.Accepted())
	require.Equal(t, validation.ActionDepositAndBorrow, res.Description.Action)
	// debt grows by 202; the fee-exclusive borrow amount sits just above 200
	require.True(t, res.Description.BorrowLUSD.GreaterThan(dec("200")))
	require.True(t, res.Description.BorrowLUSD.LessThan(dec("201")))
}
