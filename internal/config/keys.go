// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package config

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// cookieKeySalt binds derived keys to this application's cookie use.
	cookieKeySalt = "bookshelf-cookies"

	cookieHashInfo  = "cookie-hmac-v1"
	cookieBlockInfo = "cookie-aes-v1"

	// hashKeySize is the HMAC-SHA256 key size; blockKeySize selects AES-256.
	hashKeySize  = 32
	blockKeySize = 32
)

// ErrEmptySecret is returned when an empty secret key is provided.
var ErrEmptySecret = errors.New("secret key cannot be empty")

// CookieKeys are the signing and encryption keys for session and flash cookies.
type CookieKeys struct {
	HashKey  []byte
	BlockKey []byte
}

// DeriveCookieKeys derives independent HMAC and AES keys from the secret
// key using HKDF-SHA256 with distinct info labels.
func DeriveCookieKeys(secret string) (CookieKeys, error) {
	if secret == "" {
		return CookieKeys{}, ErrEmptySecret
	}

	hashKey, err := deriveKey(secret, cookieHashInfo, hashKeySize)
	if err != nil {
		return CookieKeys{}, err
	}
	blockKey, err := deriveKey(secret, cookieBlockInfo, blockKeySize)
	if err != nil {
		return CookieKeys{}, err
	}

	return CookieKeys{HashKey: hashKey, BlockKey: blockKey}, nil
}

func deriveKey(secret, info string, size int) ([]byte, error) {
	hkdfReader := hkdf.New(sha256.New, []byte(secret), []byte(cookieKeySalt), []byte(info))

	key := make([]byte, size)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("failed to read HKDF output: %w", err)
	}
	return key, nil
}
