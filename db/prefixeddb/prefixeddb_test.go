package prefixeddb

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Wizbisy/anonpoll/db"
	"github.com/Wizbisy/anonpoll/db/pebbledb"
)

func TestPrefixedDatabase(t *testing.T) {
	c := qt.New(t)
	database, err := pebbledb.New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)
	defer func() { _ = database.Close() }()

	one := NewPrefixedDatabase(database, []byte("one/"))
	two := NewPrefixedDatabase(database, []byte("two/"))

	wTx := one.WriteTx()
	c.Assert(wTx.Set([]byte("key"), []byte("in one")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)
	wTx.Discard()

	wTx = two.WriteTx()
	c.Assert(wTx.Set([]byte("key"), []byte("in two")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)
	wTx.Discard()

	// each prefix sees its own value under the same key
	got, err := one.Get([]byte("key"))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []byte("in one"))
	got, err = two.Get([]byte("key"))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []byte("in two"))

	// the underlying database stores the combined keys
	got, err = database.Get([]byte("one/key"))
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, []byte("in one"))

	// iteration is scoped to the prefix and strips it
	var keys []string
	err = one.Iterate(nil, func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.DeepEquals, []string{"key"})
}

func TestPrefixedReader(t *testing.T) {
	c := qt.New(t)
	database, err := pebbledb.New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)
	defer func() { _ = database.Close() }()

	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("p/a/1"), []byte{1}), qt.IsNil)
	c.Assert(wTx.Set([]byte("p/a/2"), []byte{2}), qt.IsNil)
	c.Assert(wTx.Set([]byte("p/b/1"), []byte{3}), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)

	// a sub-prefix passed to Iterate is stripped together with the
	// reader prefix
	var keys []string
	err = NewPrefixedReader(database, []byte("p/")).
		Iterate([]byte("a/"), func(k, v []byte) bool {
			keys = append(keys, string(k))
			return true
		})
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.DeepEquals, []string{"1", "2"})
}
