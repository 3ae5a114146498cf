package evm

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// ChainIDFromNetwork returns the chain ID for a network identifier.
// Accepts CAIP-2 form ("eip155:137") plus the aliases the upstream protocol uses.
func ChainIDFromNetwork(network string) (*big.Int, error) {
	switch network {
	case "polygon", "matic":
		return big.NewInt(137), nil
	case "polygon-amoy":
		return big.NewInt(80002), nil
	case "base", "base-mainnet":
		return big.NewInt(8453), nil
	case "base-sepolia":
		return big.NewInt(84532), nil
	}

	if strings.HasPrefix(network, "eip155:") {
		chainIDStr := strings.TrimPrefix(network, "eip155:")
		chainID, ok := new(big.Int).SetString(chainIDStr, 10)
		if ok {
			return chainID, nil
		}
	}

	return nil, fmt.Errorf("unsupported network: %s", network)
}

// CreateNonce generates a random 32-byte nonce
func CreateNonce() (string, error) {
	nonce := make([]byte, 32)
	_, err := rand.Read(nonce)
	if err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return "0x" + hex.EncodeToString(nonce), nil
}

// NormalizeAddress lowercases an Ethereum address and ensures the 0x prefix
func NormalizeAddress(address string) string {
	addr := strings.TrimPrefix(strings.ToLower(address), "0x")
	return "0x" + addr
}

// IsValidAddress checks if a string is a valid Ethereum address
func IsValidAddress(address string) bool {
	addr := strings.TrimPrefix(address, "0x")
	if len(addr) != 40 {
		return false
	}
	_, err := hex.DecodeString(addr)
	return err == nil
}

// HexToBytes converts a hex string to bytes
func HexToBytes(hexStr string) ([]byte, error) {
	cleaned := strings.TrimPrefix(hexStr, "0x")
	return hex.DecodeString(cleaned)
}
