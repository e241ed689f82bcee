package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"superteam-earn/internal/blockchain"
)

// ChainVerifier checks payments and balances on chain
type ChainVerifier interface {
	VerifyPayment(ctx context.Context, txHash, receiver, tokenSymbol, mint string) (*blockchain.PaymentDetails, error)
	GetSOLBalance(ctx context.Context, walletAddress string) (decimal.Decimal, error)
	GetTokenAccountBalance(ctx context.Context, ownerAddress, mintAddress string) (uint64, error)
}

// PaymentService verifies reward payouts made by sponsors
type PaymentService struct {
	chain  ChainVerifier
	mints  map[string]string
	verify bool
}

// NewPaymentService creates a PaymentService. mints maps token symbols to
// their SPL mint. With verify off, payments are recorded as reported without
// an RPC lookup.
func NewPaymentService(chain ChainVerifier, mints map[string]string, verify bool) *PaymentService {
	return &PaymentService{chain: chain, mints: mints, verify: verify}
}

// mintOf resolves the mint a token is paid in. SOL has none.
func (p *PaymentService) mintOf(token string) (string, error) {
	token = strings.ToUpper(token)
	if token == "SOL" {
		return "", nil
	}
	mint, ok := p.mints[token]
	if !ok || mint == "" {
		return "", fmt.Errorf("%w: no mint configured for %s", ErrUnsupportedToken, token)
	}
	return mint, nil
}

// VerifyPayout checks that txHash paid amount of token to wallet
func (p *PaymentService) VerifyPayout(ctx context.Context, txHash, wallet, token string, amount decimal.Decimal) (*blockchain.PaymentDetails, error) {
	if txHash == "" {
		return nil, fmt.Errorf("%w: transaction signature is required", ErrInvalidInput)
	}
	if !blockchain.ValidateWalletAddress(wallet) {
		return nil, fmt.Errorf("%w: winner has no valid wallet", ErrInvalidState)
	}

	if !p.verify || p.chain == nil {
		return &blockchain.PaymentDetails{
			Signature: txHash,
			Receiver:  wallet,
			Token:     token,
			Amount:    amount,
		}, nil
	}

	mint, err := p.mintOf(token)
	if err != nil {
		return nil, err
	}
	details, err := p.chain.VerifyPayment(ctx, txHash, wallet, token, mint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if details.Amount.LessThan(amount) {
		return nil, fmt.Errorf("%w: transaction paid %s %s, expected %s", ErrInvalidInput,
			details.Amount.String(), token, amount.String())
	}
	return details, nil
}

// WalletBalance is the SOL and USDC holding of a wallet
type WalletBalance struct {
	Wallet    string          `json:"wallet"`
	SOL       decimal.Decimal `json:"sol"`
	USDC      decimal.Decimal `json:"usdc"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Balance reads the SOL and USDC balances a sponsor wallet holds for payouts
func (p *PaymentService) Balance(ctx context.Context, wallet string) (*WalletBalance, error) {
	if !blockchain.ValidateWalletAddress(wallet) {
		return nil, fmt.Errorf("%w: invalid wallet address", ErrInvalidInput)
	}
	if p.chain == nil {
		return nil, ErrInvalidState
	}

	sol, err := p.chain.GetSOLBalance(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to read SOL balance: %w", err)
	}

	balance := &WalletBalance{Wallet: wallet, SOL: sol, USDC: decimal.Zero, CheckedAt: time.Now().UTC()}
	if mint := p.mints["USDC"]; mint != "" {
		raw, err := p.chain.GetTokenAccountBalance(ctx, wallet, mint)
		if err != nil {
			return nil, fmt.Errorf("failed to read USDC balance: %w", err)
		}
		// USDC has 6 decimals
		balance.USDC = decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -6)
	}
	return balance, nil
}
