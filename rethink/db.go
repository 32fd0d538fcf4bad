// Package rethink is the RethinkDB binding. It maps the five benchmark
// operations onto single ReQL expressions against one table, using a
// reserved field as the store's native primary key so point gets and range
// scans ride the primary index.
package rethink

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hhkbp2/rethinkbench"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

func init() {
	rethinkbench.Databases["rethinkdb"] = func() rethinkbench.DB {
		return NewRethinkDB()
	}
}

type RethinkDB struct {
	*rethinkbench.DBBase
	cfg     *config
	session *r.Session
	exec    r.QueryExecutor
	logger  hclog.Logger
}

func NewRethinkDB() *RethinkDB {
	return &RethinkDB{
		DBBase: rethinkbench.NewDBBase(),
	}
}

// Init parses the configuration, connects to one host picked round-robin
// from the configured list and bootstraps the database and table. Any
// failure here is fatal to the instance; nothing is retried.
func (self *RethinkDB) Init() error {
	cfg, err := parseConfig(self.GetProperties())
	if err != nil {
		return fmt.Errorf("rethinkdb: %w", err)
	}
	self.cfg = cfg
	self.logger = hclog.New(&hclog.LoggerOptions{
		Name:  "rethinkdb",
		Level: hclog.LevelFromString(cfg.logLevel),
	})
	addr := sharedHostPool(cfg.hosts).nextAddr()
	session, err := r.Connect(r.ConnectOpts{
		Address:  addr,
		Username: cfg.username,
		Password: cfg.password,
		Timeout:  cfg.connectTimeout,
	})
	if err != nil {
		return fmt.Errorf("rethinkdb: connect %s: %w", addr, err)
	}
	self.session = session
	self.exec = session
	self.logger.Debug("connected", "address", addr)
	if err := self.ensureSchema(); err != nil {
		session.Close()
		return fmt.Errorf("rethinkdb: schema bootstrap: %w", err)
	}
	return nil
}

// Cleanup closes the connection. Closing twice is not guaranteed to
// succeed; the harness calls it once per instance.
func (self *RethinkDB) Cleanup() error {
	if self.session == nil {
		return nil
	}
	return self.session.Close()
}

// tableTerm targets the table named by the operation. The configured table
// is only the bootstrap target and the fallback for callers that pass an
// empty name.
func (self *RethinkDB) tableTerm(name string) r.Term {
	if len(name) == 0 {
		name = self.cfg.table
	}
	return r.DB(self.cfg.database).Table(name)
}

func (self *RethinkDB) runOpts() []r.RunOpts {
	if self.cfg.readMode == "" {
		return nil
	}
	return []r.RunOpts{{ReadMode: self.cfg.readMode}}
}

func (self *RethinkDB) Read(table string, key string, fields []string) (rethinkbench.KVMap, rethinkbench.Status) {
	q := self.tableTerm(table).Get(key)
	if len(fields) > 0 {
		q = q.Pluck(fieldArgs(fields)...)
	}
	cursor, err := q.Run(self.exec, self.runOpts()...)
	if err != nil {
		if isMissingRow(err) {
			return nil, rethinkbench.NotFound()
		}
		self.logger.Error("read failed", "key", key, "error", err)
		return nil, rethinkbench.Errored(err)
	}
	defer cursor.Close()
	var row map[string]interface{}
	if err := cursor.One(&row); err != nil {
		if isMissingRow(err) {
			return nil, rethinkbench.NotFound()
		}
		self.logger.Error("read failed", "key", key, "error", err)
		return nil, rethinkbench.Errored(err)
	}
	return self.toRecord(row, fields), rethinkbench.OK()
}

func (self *RethinkDB) Scan(table string, startKey string, recordCount int64, fields []string) ([]rethinkbench.KVMap, rethinkbench.Status) {
	if recordCount <= 0 {
		return nil, rethinkbench.OK()
	}
	q := self.tableTerm(table).
		Between(startKey, r.MaxVal).
		OrderBy(r.OrderByOpts{Index: self.cfg.primaryKey}).
		Limit(recordCount)
	if len(fields) > 0 {
		q = q.Pluck(fieldArgs(fields)...)
	}
	cursor, err := q.Run(self.exec, self.runOpts()...)
	if err != nil {
		self.logger.Error("scan failed", "start_key", startKey, "error", err)
		return nil, rethinkbench.Errored(err)
	}
	defer cursor.Close()
	var rows []map[string]interface{}
	if err := cursor.All(&rows); err != nil {
		self.logger.Error("scan failed", "start_key", startKey, "error", err)
		return nil, rethinkbench.Errored(err)
	}
	// An empty range is a valid answer, not NotFound.
	results := make([]rethinkbench.KVMap, 0, len(rows))
	for _, row := range rows {
		results = append(results, self.toRecord(row, fields))
	}
	return results, rethinkbench.OK()
}

func (self *RethinkDB) Update(table string, key string, values rethinkbench.KVMap) rethinkbench.Status {
	resp, err := self.tableTerm(table).Get(key).Update(toDocument(values)).RunWrite(self.exec)
	if err != nil {
		self.logger.Error("update failed", "key", key, "error", err)
		return rethinkbench.Errored(err)
	}
	if resp.Errors > 0 {
		self.logger.Error("update failed", "key", key, "error", resp.FirstError)
		return rethinkbench.Errored(errors.New(resp.FirstError))
	}
	// A matched row that already held the written bytes counts as
	// unchanged, not replaced; both mean exactly one row matched.
	applied := resp.Replaced + resp.Unchanged
	if resp.Skipped > 0 || applied == 0 {
		return rethinkbench.NotFound()
	}
	if applied != 1 {
		return rethinkbench.Unexpected(fmt.Errorf("update of %q applied to %d rows", key, applied))
	}
	return rethinkbench.OK()
}

func (self *RethinkDB) Insert(table string, key string, values rethinkbench.KVMap) rethinkbench.Status {
	doc := toDocument(values)
	doc[self.cfg.primaryKey] = key
	resp, err := self.tableTerm(table).Insert(doc).RunWrite(self.exec)
	if err != nil {
		self.logger.Error("insert failed", "key", key, "error", err)
		return rethinkbench.Errored(err)
	}
	if resp.Errors > 0 {
		// Duplicate primary keys land here.
		self.logger.Error("insert failed", "key", key, "error", resp.FirstError)
		return rethinkbench.Errored(errors.New(resp.FirstError))
	}
	if resp.Inserted != 1 {
		return rethinkbench.Unexpected(fmt.Errorf("insert of %q created %d rows", key, resp.Inserted))
	}
	return rethinkbench.OK()
}

func (self *RethinkDB) Delete(table string, key string) rethinkbench.Status {
	resp, err := self.tableTerm(table).Get(key).Delete().RunWrite(self.exec)
	if err != nil {
		self.logger.Error("delete failed", "key", key, "error", err)
		return rethinkbench.Errored(err)
	}
	if resp.Errors > 0 {
		self.logger.Error("delete failed", "key", key, "error", resp.FirstError)
		return rethinkbench.Errored(errors.New(resp.FirstError))
	}
	if resp.Skipped > 0 || resp.Deleted == 0 {
		return rethinkbench.NotFound()
	}
	if resp.Deleted != 1 {
		return rethinkbench.Unexpected(fmt.Errorf("delete of %q removed %d rows", key, resp.Deleted))
	}
	return rethinkbench.OK()
}

// toRecord converts a decoded row into the benchmark field map. The
// reserved key field is dropped from an unprojected read; a projected read
// contains exactly what the caller plucked.
func (self *RethinkDB) toRecord(row map[string]interface{}, fields []string) rethinkbench.KVMap {
	record := make(rethinkbench.KVMap, len(row))
	for k, v := range row {
		if len(fields) == 0 && k == self.cfg.primaryKey {
			continue
		}
		record[k] = fieldValue(v)
	}
	return record
}

func toDocument(values rethinkbench.KVMap) map[string]interface{} {
	doc := make(map[string]interface{}, len(values)+1)
	for k, v := range values {
		doc[k] = string(v)
	}
	return doc
}

func fieldValue(v interface{}) rethinkbench.Binary {
	switch x := v.(type) {
	case string:
		return rethinkbench.Binary(x)
	case []byte:
		return rethinkbench.Binary(x)
	default:
		return rethinkbench.Binary(fmt.Sprintf("%v", x))
	}
}

func fieldArgs(fields []string) []interface{} {
	args := make([]interface{}, len(fields))
	for i, f := range fields {
		args[i] = f
	}
	return args
}

// isMissingRow folds the two shapes of "no such record" into one outcome:
// an exhausted cursor from a null get, and the runtime error raised when a
// projection is applied to that null.
func isMissingRow(err error) bool {
	if err == r.ErrEmptyResult {
		return true
	}
	return strings.Contains(err.Error(), "non-object non-sequence `null`")
}
