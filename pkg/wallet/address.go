package wallet

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Addresses are stored lowercase; the checksummed form is only used for
// display and for validating mixed-case input per EIP-55.

// Normalize validates an EVM address and returns its canonical lowercase
// form. Mixed-case input must carry a valid EIP-55 checksum.
func Normalize(address string) (string, error) {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return "", fmt.Errorf("address must start with 0x")
	}
	hexPart := address[2:]
	if len(hexPart) != 40 {
		return "", fmt.Errorf("address must be 20 bytes")
	}
	hasUpper := false
	hasLower := false
	for _, r := range hexPart {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
			hasLower = true
		case r >= 'A' && r <= 'F':
			hasUpper = true
		default:
			return "", fmt.Errorf("address contains non-hex character %q", r)
		}
	}
	if hasUpper && hasLower {
		if Checksum("0x"+strings.ToLower(hexPart)) != "0x"+hexPart {
			return "", fmt.Errorf("address checksum mismatch")
		}
	}
	return "0x" + strings.ToLower(hexPart), nil
}

// Checksum returns the EIP-55 mixed-case form of a lowercase address.
// Input is assumed to be a valid 0x-prefixed 40-hex-digit string.
func Checksum(address string) string {
	hexPart := strings.ToLower(strings.TrimPrefix(address, "0x"))

	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(hexPart))
	digest := hash.Sum(nil)

	out := make([]byte, len(hexPart))
	for i := 0; i < len(hexPart); i++ {
		ch := hexPart[i]
		if ch >= 'a' && ch <= 'f' {
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			} else {
				nibble &= 0x0f
			}
			if nibble >= 8 {
				ch = ch - 'a' + 'A'
			}
		}
		out[i] = ch
	}
	return "0x" + string(out)
}
