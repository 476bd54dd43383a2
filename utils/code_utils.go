package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	"os"
	"regexp"
	"strings"
)

const passCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// EnvOrDefault returns the ENV value or the fallback default.
func EnvOrDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// GeneratePassCode returns an n-char A-Z0-9 gate-pass code. Uses
// crypto/rand with rand.Int to avoid modulo bias.
func GeneratePassCode(n int) (string, error) {
	if n <= 0 {
		return "", errors.New("invalid length")
	}
	var sb strings.Builder
	alphaLen := big.NewInt(int64(len(passCodeCharset)))
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, alphaLen)
		if err != nil {
			return "", err
		}
		sb.WriteByte(passCodeCharset[num.Int64()])
	}
	return sb.String(), nil
}

// FormatPassCode renders a raw 8-char code as "XXXX-XXXX".
func FormatPassCode(raw string) (string, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	raw = strings.ReplaceAll(raw, "-", "")
	if len(raw) != 8 {
		return "", errors.New("raw must be length 8")
	}
	return raw[:4] + "-" + raw[4:], nil
}

// NormalizePassCode strips hyphens and any non-alphanumerics, uppercased.
func NormalizePassCode(code string) string {
	s := strings.ToUpper(strings.TrimSpace(code))
	return nonAlnum.ReplaceAllString(s, "")
}

// IsValidPassCodeFormat accepts "ABCDEFGH" or "ABCD-EFGH".
func IsValidPassCodeFormat(code string) bool {
	norm := NormalizePassCode(code)
	return len(norm) == 8
}
