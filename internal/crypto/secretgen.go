package crypto

import (
	"bytes"
	"encoding/base32"
	"encoding/hex"
	"fmt"
	"image/png"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// APIKeyBytes is the amount of entropy in an account API key.
	APIKeyBytes = 32
	// TOTPSecretBytes is the standard 160-bit TOTP seed length.
	TOTPSecretBytes = 20
)

var b32NoPad = base32.StdEncoding.WithPadding(base32.NoPadding)

// mustRandBytes panics when the system random source fails: a degraded
// source must never yield secret material.
func mustRandBytes(n int) []byte {
	b, err := RandBytes(n)
	if err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return b
}

// GenerateAPIKey returns 32 random bytes as 64 lowercase hex characters.
func GenerateAPIKey() string {
	return hex.EncodeToString(mustRandBytes(APIKeyBytes))
}

// GenerateTOTPSecret returns a 20-byte random seed encoded as unpadded RFC 4648 base32.
func GenerateTOTPSecret() string {
	return b32NoPad.EncodeToString(mustRandBytes(TOTPSecretBytes))
}

// TOTPURI builds the otpauth:// URI consumed by authenticator apps.
func TOTPURI(issuer, account, secret string) (string, error) {
	raw, err := b32NoPad.DecodeString(strings.ToUpper(secret))
	if err != nil {
		return "", fmt.Errorf("decode totp secret: %w", err)
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Secret:      raw,
	})
	if err != nil {
		return "", fmt.Errorf("build totp key: %w", err)
	}
	return key.URL(), nil
}

// TOTPQRCode renders an otpauth:// URI as a size x size PNG for scanning.
func TOTPQRCode(uri string, size int) ([]byte, error) {
	key, err := otp.NewKeyFromURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse totp uri: %w", err)
	}
	if key.Type() != "totp" {
		return nil, fmt.Errorf("not a totp uri: %q", key.Type())
	}
	img, err := key.Image(size, size)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// VerifyTOTP validates a 6-digit code against the secret for the current time step.
func VerifyTOTP(secret, code string) bool {
	return totp.Validate(strings.TrimSpace(code), secret)
}
