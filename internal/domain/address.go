package domain

import "regexp"

var (
	evmAddressPattern    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	solanaAddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// IsValidEVMAddress reports whether s has the shape of a 20-byte hex
// address. No checksum validation.
func IsValidEVMAddress(s string) bool {
	return evmAddressPattern.MatchString(s)
}

// IsValidSolanaAddress reports whether s has the shape of a base58
// Solana public key.
func IsValidSolanaAddress(s string) bool {
	return solanaAddressPattern.MatchString(s)
}

// IsPlausibleAddress checks the address shape appropriate for the chain.
func IsPlausibleAddress(chain, address string) bool {
	if chain == "solana" {
		return IsValidSolanaAddress(address)
	}
	return IsValidEVMAddress(address)
}
