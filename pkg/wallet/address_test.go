package wallet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Checksummed fixtures from the EIP-55 reference vectors.
var checksummed = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestChecksum(t *testing.T) {
	for _, addr := range checksummed {
		assert.Equal(t, addr, Checksum(strings.ToLower(addr)))
	}
}

func TestNormalizeLowercase(t *testing.T) {
	lower := strings.ToLower(checksummed[0])
	got, err := Normalize(lower)
	require.NoError(t, err)
	assert.Equal(t, lower, got)
}

func TestNormalizeValidChecksum(t *testing.T) {
	got, err := Normalize(checksummed[1])
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(checksummed[1]), got)
}

func TestNormalizeBadChecksum(t *testing.T) {
	// Flip the case of one letter so the checksum no longer matches.
	bad := strings.Replace(checksummed[2], "F", "f", 1)
	_, err := Normalize(bad)
	assert.Error(t, err)
}

func TestNormalizeRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beae",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaeg",
	}
	for _, addr := range cases {
		_, err := Normalize(addr)
		assert.Error(t, err, addr)
	}
}
