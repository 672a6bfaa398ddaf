// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var errUnsupportedKey = errors.New("unsupported key type, expected RSA or ECDSA")

// parsePrivateKey reads an RSA or P-256 ECDSA key in PEM form and returns the matching signing method.
func parsePrivateKey(pemKey []byte) (crypto.Signer, jwt.SigningMethod, error) {
	if key, err := jwt.ParseRSAPrivateKeyFromPEM(pemKey); err == nil {
		return key, jwt.SigningMethodRS256, nil
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(pemKey)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errUnsupportedKey, err)
	}

	return key, jwt.SigningMethodES256, nil
}

func parsePublicKey(pemKey []byte) (crypto.PublicKey, error) {
	if key, err := jwt.ParseRSAPublicKeyFromPEM(pemKey); err == nil {
		return key, nil
	}

	key, err := jwt.ParseECPublicKeyFromPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUnsupportedKey, err)
	}

	return key, nil
}

func publicKeyAlg(key crypto.PublicKey) (string, error) {
	switch key.(type) {
	case *rsa.PublicKey:
		return jwt.SigningMethodRS256.Alg(), nil
	case *ecdsa.PublicKey:
		return jwt.SigningMethodES256.Alg(), nil
	default:
		return "", errUnsupportedKey
	}
}
