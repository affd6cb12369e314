package proof_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perprug/royale/internal/pkg/proof"
)

func TestVerifyBuyIn(t *testing.T) {
	t.Parallel()

	secret := []byte("proof-secret")
	verifier := &proof.HMACVerifier{Secret: secret}

	signature := proof.Sign(secret, proof.BuyInMessage("wallet-1"))

	assert.True(t, verifier.VerifyBuyIn(signature, "wallet-1"))
	assert.False(t, verifier.VerifyBuyIn(signature, "wallet-2"))
	assert.False(t, verifier.VerifyBuyIn("not-a-signature", "wallet-1"))
}

func TestVerifyExit(t *testing.T) {
	t.Parallel()

	secret := []byte("proof-secret")
	verifier := &proof.HMACVerifier{Secret: secret}

	signature := proof.Sign(secret, proof.ExitMessage("wallet-1", "TOKEN-1"))

	assert.True(t, verifier.VerifyExit(signature, "wallet-1", "TOKEN-1"))
	assert.False(t, verifier.VerifyExit(signature, "wallet-1", "TOKEN-2"))
	assert.False(t, verifier.VerifyExit(signature, "wallet-2", "TOKEN-1"))
}

func TestVerifierSecretMatters(t *testing.T) {
	t.Parallel()

	signature := proof.Sign([]byte("one secret"), proof.BuyInMessage("wallet-1"))

	verifier := &proof.HMACVerifier{Secret: []byte("another secret")}

	assert.False(t, verifier.VerifyBuyIn(signature, "wallet-1"))
}
