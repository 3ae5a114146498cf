package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeySigner implements Signer using a local ECDSA private key.
// This is the server-side/bot form of the wallet capability; browser wallets plug
// in behind the same interface.
type PrivateKeySigner struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    *big.Int
}

// NewPrivateKeySigner creates a signer from a hex-encoded private key bound to a chain.
//
// Args:
//
//	privateKeyHex: Hex-encoded private key (with or without "0x" prefix)
//	chainID: The chain the signer operates on (e.g. 137 for Polygon)
//
// Returns:
//
//	Signer implementation ready for use with x402.Client
//	Error if the private key is invalid
func NewPrivateKeySigner(privateKeyHex string, chainID *big.Int) (*PrivateKeySigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	address := crypto.PubkeyToAddress(privateKey.PublicKey)

	return &PrivateKeySigner{
		privateKey: privateKey,
		address:    address,
		chainID:    chainID,
	}, nil
}

// Address returns the Ethereum address of the signer.
func (s *PrivateKeySigner) Address() string {
	return s.address.Hex()
}

// ChainID returns the chain the signer is bound to.
func (s *PrivateKeySigner) ChainID() *big.Int {
	return s.chainID
}

// SignTypedData signs EIP-712 typed data with the local key.
//
// Returns a 65-byte signature (r, s, v) with v adjusted to 27/28.
func (s *PrivateKeySigner) SignTypedData(
	ctx context.Context,
	domain TypedDataDomain,
	types map[string][]TypedDataField,
	primaryType string,
	message map[string]interface{},
) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	digest, err := HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(digest, s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}

	// Recovery ID 0/1 -> 27/28
	if signature[64] < 27 {
		signature[64] += 27
	}

	return signature, nil
}
