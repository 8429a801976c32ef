// Package sqlite registers the SQLite driver used by svim, with vector helpers as SQL functions.
package sqlite

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
	"github.com/sandevgo/svim/pkg/vector"
)

const DriverName = "sqlite3_svim"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("vec_cosine", cosine, true)
		},
	})
}

// cosine compares two little-endian float32 blobs. Malformed or mismatched blobs score 0.
func cosine(a, b []byte) float64 {
	va, err := vector.Deserialize(a)
	if err != nil {
		return 0
	}
	vb, err := vector.Deserialize(b)
	if err != nil || len(va) != len(vb) {
		return 0
	}
	return float64(vector.Cosine(va, vb))
}
