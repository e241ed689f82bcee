package blockchain

import (
	"context"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrTransactionNotFound      = errors.New("transaction not found or not confirmed")
	ErrTransactionFailed        = errors.New("transaction execution failed")
	ErrReceiverNotInTransaction = errors.New("receiver not credited by transaction")
)

const lamportsPerSOL = 1_000_000_000

// SolanaClient handles Solana blockchain interactions
type SolanaClient struct {
	rpcClient *rpc.Client
	network   string
}

// RPCEndpoint resolves the RPC URL for a cluster name
func RPCEndpoint(network string) string {
	switch network {
	case "mainnet-beta":
		return rpc.MainNetBeta_RPC
	case "testnet":
		return rpc.TestNet_RPC
	default:
		return rpc.DevNet_RPC
	}
}

// NewSolanaClient creates a new Solana client. rpcURL overrides the public
// endpoint of network when set.
func NewSolanaClient(network, rpcURL string) *SolanaClient {
	if rpcURL == "" {
		rpcURL = RPCEndpoint(network)
	}

	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		network:   network,
	}
}

// ValidateWalletAddress validates a Solana wallet address format
func ValidateWalletAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// GetSOLBalance gets the SOL balance for a wallet
func (s *SolanaClient) GetSOLBalance(ctx context.Context, walletAddress string) (decimal.Decimal, error) {
	pubKey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := s.rpcClient.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, err
	}

	// Convert lamports to SOL
	return decimal.NewFromInt(int64(balance.Value)).Div(decimal.NewFromInt(lamportsPerSOL)), nil
}

// PaymentDetails holds the parsed details of a verified transfer
type PaymentDetails struct {
	Signature string          `json:"signature"`
	Receiver  string          `json:"receiver"`
	Token     string          `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
	Slot      uint64          `json:"slot"`
}

// VerifyPayment checks that txHash is a confirmed, successful transaction that
// credited receiver. SPL transfers are measured through balance changes of
// receiver's token accounts for mint, SOL transfers through lamports.
func (s *SolanaClient) VerifyPayment(ctx context.Context, txHash, receiver, tokenSymbol, mint string) (*PaymentDetails, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction signature: %w", err)
	}
	receiverKey, err := solana.PublicKeyFromBase58(receiver)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver wallet: %w", err)
	}
	var mintKey solana.PublicKey
	if tokenSymbol != "SOL" {
		if mintKey, err = solana.PublicKeyFromBase58(mint); err != nil {
			return nil, fmt.Errorf("invalid %s mint: %w", tokenSymbol, err)
		}
	}

	status, err := s.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, err
	}

	if len(status.Value) == 0 || status.Value[0] == nil {
		return nil, ErrTransactionNotFound
	}

	if status.Value[0].Err != nil {
		zap.L().Info("transaction failed on chain", zap.String("signature", txHash), zap.Any("err", status.Value[0].Err))
		return nil, ErrTransactionFailed
	}

	confStatus := status.Value[0].ConfirmationStatus
	if confStatus != rpc.ConfirmationStatusConfirmed && confStatus != rpc.ConfirmationStatusFinalized {
		return nil, ErrTransactionNotFound
	}

	maxVersion := uint64(0)
	tx, err := s.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction details: %w", err)
	}
	if tx.Meta == nil {
		return nil, ErrTransactionNotFound
	}

	details := &PaymentDetails{
		Signature: txHash,
		Receiver:  receiver,
		Token:     tokenSymbol,
		Slot:      tx.Slot,
	}

	if tokenSymbol == "SOL" {
		transaction, err := tx.Transaction.GetTransaction()
		if err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		idx := -1
		for i, key := range transaction.Message.AccountKeys {
			if key.Equals(receiverKey) {
				idx = i
				break
			}
		}
		if idx < 0 || idx >= len(tx.Meta.PreBalances) || idx >= len(tx.Meta.PostBalances) {
			return nil, ErrReceiverNotInTransaction
		}
		pre, post := tx.Meta.PreBalances[idx], tx.Meta.PostBalances[idx]
		if post <= pre {
			return nil, ErrReceiverNotInTransaction
		}
		details.Amount = decimal.NewFromInt(int64(post - pre)).Div(decimal.NewFromInt(lamportsPerSOL))
		return details, nil
	}

	delta, decimals := tokenDelta(tx.Meta.PreTokenBalances, tx.Meta.PostTokenBalances, receiverKey, mintKey)
	if delta.LessThanOrEqual(decimal.Zero) {
		return nil, ErrReceiverNotInTransaction
	}
	details.Amount = delta.Shift(-int32(decimals))
	return details, nil
}

func tokenDelta(pre, post []rpc.TokenBalance, owner, mint solana.PublicKey) (decimal.Decimal, uint8) {
	sum := func(balances []rpc.TokenBalance) (decimal.Decimal, uint8) {
		total := decimal.Zero
		var decimals uint8
		for _, b := range balances {
			if b.Owner == nil || !b.Owner.Equals(owner) || !b.Mint.Equals(mint) || b.UiTokenAmount == nil {
				continue
			}
			amount, err := decimal.NewFromString(b.UiTokenAmount.Amount)
			if err != nil {
				continue
			}
			total = total.Add(amount)
			decimals = b.UiTokenAmount.Decimals
		}
		return total, decimals
	}
	before, _ := sum(pre)
	after, decimals := sum(post)
	return after.Sub(before), decimals
}

// GetTokenAccountBalance gets the raw token balance for a specific owner and mint
func (s *SolanaClient) GetTokenAccountBalance(ctx context.Context, ownerAddress string, mintAddress string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(ownerAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid owner address: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid mint address: %w", err)
	}

	// Find token accounts for this mint owned by the address
	resp, err := s.rpcClient.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{
			Mint: &mint,
		},
		&rpc.GetTokenAccountsOpts{
			Encoding: solana.EncodingBase64,
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to get token accounts: %w", err)
	}

	if len(resp.Value) == 0 {
		return 0, nil // No account means 0 balance
	}

	var totalBalance uint64
	for _, account := range resp.Value {
		var tokenAccount token.Account
		decoder := bin.NewBinDecoder(account.Account.Data.GetBinary())
		if err := tokenAccount.UnmarshalWithDecoder(decoder); err != nil {
			zap.L().Warn("failed to decode token account data", zap.Error(err))
			continue
		}
		totalBalance += tokenAccount.Amount
	}

	return totalBalance, nil
}
