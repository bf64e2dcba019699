// Package metadb instantiates a db.Database from a backend type identifier.
package metadb

import (
	"fmt"

	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/pebbledb"
)

// New opens a database of the given type rooted at dir.
func New(typ, dir string) (db.Database, error) {
	switch typ {
	case db.TypePebble:
		database, err := pebbledb.New(db.Options{Path: dir})
		if err != nil {
			return nil, err
		}
		return database, nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", typ)
	}
}
