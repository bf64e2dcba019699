package pebbledb

import (
	"fmt"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Wizbisy/anonpoll/db"
)

func TestGetSetDelete(t *testing.T) {
	c := qt.New(t)
	database, err := New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)
	defer func() { _ = database.Close() }()

	key := []byte("key")
	value := []byte("value")

	_, err = database.Get(key)
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)

	wTx := database.WriteTx()
	c.Assert(wTx.Set(key, value), qt.IsNil)

	// pending writes are visible inside the transaction
	got, err := wTx.Get(key)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, value)

	// but not outside before commit
	_, err = database.Get(key)
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)

	c.Assert(wTx.Commit(), qt.IsNil)
	wTx.Discard()

	got, err = database.Get(key)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.DeepEquals, value)

	wTx = database.WriteTx()
	c.Assert(wTx.Delete(key), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)

	_, err = database.Get(key)
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)
}

func TestDiscard(t *testing.T) {
	c := qt.New(t)
	database, err := New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)
	defer func() { _ = database.Close() }()

	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("key"), []byte("value")), qt.IsNil)
	wTx.Discard()

	_, err = database.Get([]byte("key"))
	c.Assert(err, qt.Equals, db.ErrKeyNotFound)
}

func TestIterate(t *testing.T) {
	c := qt.New(t)
	database, err := New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)
	defer func() { _ = database.Close() }()

	wTx := database.WriteTx()
	for i := 0; i < 10; i++ {
		c.Assert(wTx.Set([]byte(fmt.Sprintf("a/%d", i)), []byte{byte(i)}), qt.IsNil)
	}
	c.Assert(wTx.Set([]byte("b/0"), []byte{0xff}), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)

	// keys come back without the prefix, in order
	var keys []string
	err = database.Iterate([]byte("a/"), func(k, v []byte) bool {
		keys = append(keys, string(k))
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(keys, qt.DeepEquals, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"})

	// stopping early
	count := 0
	err = database.Iterate([]byte("a/"), func(k, v []byte) bool {
		count++
		return count < 3
	})
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 3)

	// nil prefix covers everything
	count = 0
	err = database.Iterate(nil, func(k, v []byte) bool {
		count++
		return true
	})
	c.Assert(err, qt.IsNil)
	c.Assert(count, qt.Equals, 11)
}

func TestCommitTwice(t *testing.T) {
	c := qt.New(t)
	database, err := New(db.Options{Path: t.TempDir()})
	c.Assert(err, qt.IsNil)
	defer func() { _ = database.Close() }()

	wTx := database.WriteTx()
	c.Assert(wTx.Set([]byte("key"), []byte("value")), qt.IsNil)
	c.Assert(wTx.Commit(), qt.IsNil)
	c.Assert(wTx.Commit(), qt.Not(qt.IsNil))
}
