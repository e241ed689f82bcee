package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ReferralCodeLength is the length of generated referral codes
const ReferralCodeLength = 8

// GenerateReferralCode returns a random uppercase code without ambiguous characters (0/O, 1/I)
func GenerateReferralCode() (string, error) {
	buf := make([]byte, ReferralCodeLength)
	limit := big.NewInt(int64(len(referralAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}
		buf[i] = referralAlphabet[n.Int64()]
	}
	return string(buf), nil
}
