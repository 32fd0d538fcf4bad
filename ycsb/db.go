// Package ycsb plugs the RethinkDB binding into the go-ycsb harness. The
// harness drives the error-based ycsb.DB interface; this package maps it
// onto the status-based contract, keeping NotFound distinguishable from a
// fault through ErrNotFound.
package ycsb

import (
	"context"
	"errors"

	"github.com/magiconair/properties"
	"github.com/pingcap/go-ycsb/pkg/ycsb"

	"github.com/hhkbp2/rethinkbench"
	_ "github.com/hhkbp2/rethinkbench/rethink"
)

// ErrNotFound reports a read, update or delete that matched no record.
var ErrNotFound = errors.New("rethinkdb: record not found")

type rethinkDB struct {
	db rethinkbench.DB
}

func (self *rethinkDB) Close() error {
	return self.db.Cleanup()
}

func (self *rethinkDB) InitThread(ctx context.Context, threadID int, threadCount int) context.Context {
	return ctx
}

func (self *rethinkDB) CleanupThread(ctx context.Context) {
}

func (self *rethinkDB) Read(ctx context.Context, table string, key string, fields []string) (map[string][]byte, error) {
	record, status := self.db.Read(table, key, fields)
	if err := statusError(status); err != nil {
		return nil, err
	}
	return toRow(record), nil
}

func (self *rethinkDB) Scan(ctx context.Context, table string, startKey string, count int, fields []string) ([]map[string][]byte, error) {
	records, status := self.db.Scan(table, startKey, int64(count), fields)
	if err := statusError(status); err != nil {
		return nil, err
	}
	rows := make([]map[string][]byte, 0, len(records))
	for _, record := range records {
		rows = append(rows, toRow(record))
	}
	return rows, nil
}

func (self *rethinkDB) Update(ctx context.Context, table string, key string, values map[string][]byte) error {
	return statusError(self.db.Update(table, key, toKVMap(values)))
}

func (self *rethinkDB) Insert(ctx context.Context, table string, key string, values map[string][]byte) error {
	return statusError(self.db.Insert(table, key, toKVMap(values)))
}

func (self *rethinkDB) Delete(ctx context.Context, table string, key string) error {
	return statusError(self.db.Delete(table, key))
}

func statusError(status rethinkbench.Status) error {
	switch status.Type {
	case rethinkbench.StatusOK:
		return nil
	case rethinkbench.StatusNotFound:
		return ErrNotFound
	default:
		if cause := status.Cause(); cause != nil {
			return cause
		}
		return errors.New(status.Type.String())
	}
}

func toRow(record rethinkbench.KVMap) map[string][]byte {
	row := make(map[string][]byte, len(record))
	for k, v := range record {
		row[k] = v
	}
	return row
}

func toKVMap(values map[string][]byte) rethinkbench.KVMap {
	kv := make(rethinkbench.KVMap, len(values))
	for k, v := range values {
		kv[k] = v
	}
	return kv
}

type rethinkDBCreator struct {
}

func (self rethinkDBCreator) Create(p *properties.Properties) (ycsb.DB, error) {
	props := rethinkbench.NewProperties()
	props.Merge(p.Map())
	db, err := rethinkbench.NewDB("rethinkdb", props)
	if err != nil {
		return nil, err
	}
	if err := db.Init(); err != nil {
		return nil, err
	}
	return &rethinkDB{db: db}, nil
}

func init() {
	ycsb.RegisterDBCreator("rethinkdb", rethinkDBCreator{})
}
