package domain

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPixKey marks a destination key whose format matches no known
// PIX key type. This is a permanent failure for the withdrawal carrying it.
var ErrInvalidPixKey = errors.New("invalid pix key")

var (
	pixPhonePattern = regexp.MustCompile(`^\+55\d{11}$`)
	pixCPFPattern   = regexp.MustCompile(`^\d{11}$`)
)

// ClassifyPixKey derives the gateway key-type tag from the key's format.
func ClassifyPixKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	switch {
	case strings.Contains(key, "@"):
		return PixKeyEmail, nil
	case pixPhonePattern.MatchString(key):
		return PixKeyPhone, nil
	case pixCPFPattern.MatchString(key):
		return PixKeyCPF, nil
	default:
		return "", ErrInvalidPixKey
	}
}
