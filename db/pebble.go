package db

import (
	"errors"

	"github.com/cockroachdb/pebble"
)

type Pebble struct {
	db           *pebble.DB
	writeOptions *pebble.WriteOptions
}

var _ Database = (*Pebble)(nil)

func NewPebble(db *pebble.DB) *Pebble {
	return &Pebble{
		db:           db,
		writeOptions: &pebble.WriteOptions{Sync: true},
	}
}

func (p *Pebble) Get(key []byte) ([]byte, error) {
	dat, closer, err := p.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	ret := make([]byte, len(dat))
	copy(ret, dat)
	_ = closer.Close()
	return ret, nil
}

func (p *Pebble) Set(key, value []byte) error {
	return p.db.Set(key, value, p.writeOptions)
}

func (p *Pebble) Delete(key []byte) error {
	return p.db.Delete(key, p.writeOptions)
}

func (p *Pebble) All(prefix []byte) ([][]byte, error) {
	iter, err := p.db.NewIter(prefixIterOptions(prefix))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = iter.Close()
	}()
	var keys [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		k := iter.Key()
		key := make([]byte, len(k)-len(prefix))
		copy(key, k[len(prefix):])
		keys = append(keys, key)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (p *Pebble) Close() error {
	return p.db.Close()
}

// prefixIterOptions bounds an iterator to keys carrying prefix.
func prefixIterOptions(prefix []byte) *pebble.IterOptions {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return &pebble.IterOptions{LowerBound: prefix, UpperBound: upper[:i+1]}
		}
	}
	return &pebble.IterOptions{LowerBound: prefix}
}
