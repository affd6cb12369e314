package proof

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/samber/do/v2"
)

// HMACVerifier checks buy-in and exit proofs. A proof is the hex HMAC-SHA256
// of a fixed-format message under a secret shared with the transaction
// relay, so a proof for one wallet or token never validates for another.
type HMACVerifier struct {
	Secret []byte
}

func NewVerifierService(i do.Injector) (*HMACVerifier, error) {
	secret := do.MustInvokeNamed[string](i, "proof-secret")

	return &HMACVerifier{
		Secret: []byte(secret),
	}, nil
}

func BuyInMessage(wallet string) string {
	return fmt.Sprintf("buy-in|%s", wallet)
}

func ExitMessage(wallet, tokenID string) string {
	return fmt.Sprintf("exit|%s|%s", wallet, tokenID)
}

func Sign(secret []byte, message string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(message))

	return hex.EncodeToString(h.Sum(nil))
}

func (v *HMACVerifier) verify(message, signature string) bool {
	expected := Sign(v.Secret, message)

	return hmac.Equal([]byte(signature), []byte(expected))
}

func (v *HMACVerifier) VerifyBuyIn(proof, wallet string) bool {
	return v.verify(BuyInMessage(wallet), proof)
}

func (v *HMACVerifier) VerifyExit(proof, wallet, tokenID string) bool {
	return v.verify(ExitMessage(wallet, tokenID), proof)
}
