package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superteam-earn/internal/blockchain"
)

var testMints = map[string]string{
	"USDC": "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
	"BONK": "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263",
}

type fakeChain struct {
	paid decimal.Decimal
	err  error
	mint string
}

func (f *fakeChain) VerifyPayment(_ context.Context, txHash, receiver, token, mint string) (*blockchain.PaymentDetails, error) {
	f.mint = mint
	if f.err != nil {
		return nil, f.err
	}
	return &blockchain.PaymentDetails{Signature: txHash, Receiver: receiver, Token: token, Amount: f.paid}, nil
}

func (f *fakeChain) GetSOLBalance(context.Context, string) (decimal.Decimal, error) {
	return decimal.RequireFromString("1.5"), nil
}

func (f *fakeChain) GetTokenAccountBalance(context.Context, string, string) (uint64, error) {
	return 2_500_000, nil
}

func TestVerifyPayout(t *testing.T) {
	ctx := context.Background()
	amount := decimal.NewFromInt(100)

	skip := NewPaymentService(nil, testMints, false)
	details, err := skip.VerifyPayout(ctx, "sig", validWallet, "USDC", amount)
	require.NoError(t, err)
	assert.True(t, details.Amount.Equal(amount))

	_, err = skip.VerifyPayout(ctx, "", validWallet, "USDC", amount)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = skip.VerifyPayout(ctx, "sig", "not-a-wallet", "USDC", amount)
	assert.ErrorIs(t, err, ErrInvalidState)

	underpaid := NewPaymentService(&fakeChain{paid: decimal.NewFromInt(60)}, testMints, true)
	_, err = underpaid.VerifyPayout(ctx, "sig", validWallet, "USDC", amount)
	assert.ErrorIs(t, err, ErrInvalidInput)

	failed := NewPaymentService(&fakeChain{err: blockchain.ErrTransactionNotFound}, testMints, true)
	_, err = failed.VerifyPayout(ctx, "sig", validWallet, "USDC", amount)
	assert.ErrorIs(t, err, ErrInvalidInput)

	paid := NewPaymentService(&fakeChain{paid: decimal.NewFromInt(100)}, testMints, true)
	details, err = paid.VerifyPayout(ctx, "sig", validWallet, "USDC", amount)
	require.NoError(t, err)
	assert.Equal(t, validWallet, details.Receiver)
}

func TestVerifyPayoutUsesTokenMint(t *testing.T) {
	ctx := context.Background()
	chain := &fakeChain{paid: decimal.NewFromInt(1000)}
	payments := NewPaymentService(chain, testMints, true)

	_, err := payments.VerifyPayout(ctx, "sig", validWallet, "BONK", decimal.NewFromInt(1000))
	require.NoError(t, err)
	assert.Equal(t, testMints["BONK"], chain.mint)

	_, err = payments.VerifyPayout(ctx, "sig", validWallet, "SOL", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Empty(t, chain.mint)

	chain.mint = "untouched"
	_, err = payments.VerifyPayout(ctx, "sig", validWallet, "STAR", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, ErrUnsupportedToken)
	assert.Equal(t, "untouched", chain.mint)
}

func TestWalletBalance(t *testing.T) {
	payments := NewPaymentService(&fakeChain{}, testMints, true)
	balance, err := payments.Balance(context.Background(), validWallet)
	require.NoError(t, err)
	assert.Equal(t, "1.5", balance.SOL.String())
	assert.Equal(t, "2.5", balance.USDC.String())
}
