// Bookshelf - Book Catalog with Reviews and Role-Based Access
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package database

import (
	"crypto/sha256"
	"crypto/sha512"
	"database/sql"
	"encoding/hex"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

const sqliteDriverName = "sqlite3_bookshelf"

//nolint:gochecknoinits // database/sql drivers register at init
func init() {
	sql.Register(sqliteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("SHA2", sha2, true)
		},
	})
}

func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", path)
}

// sha2 mirrors MySQL SHA2(str, hash_length): lowercase hex, 0 meaning 256.
// Unsupported lengths yield NULL on MySQL; here they yield an empty string,
// which never matches a stored hash.
func sha2(value string, bits int64) string {
	data := []byte(value)
	switch bits {
	case 0, 256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	case 224:
		sum := sha256.Sum224(data)
		return hex.EncodeToString(sum[:])
	case 384:
		sum := sha512.Sum384(data)
		return hex.EncodeToString(sum[:])
	case 512:
		sum := sha512.Sum512(data)
		return hex.EncodeToString(sum[:])
	default:
		return ""
	}
}
