package rethink

import (
	"fmt"
	"strings"
	"sync"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
)

// bootstrapMu serializes the check-then-create sequence across the adapter
// instances of this process. The sequence is not atomic at the store, so
// without the lock two instances can both observe a missing table and both
// try to create it. Creation races with other processes are still possible;
// an "already exists" answer from the store is therefore treated as success.
var bootstrapMu sync.Mutex

// ensureSchema creates the configured database and table if absent and
// blocks until the table reports ready. Called from Init before any CRUD
// operation is allowed through.
func (self *RethinkDB) ensureSchema() error {
	bootstrapMu.Lock()
	defer bootstrapMu.Unlock()

	cursor, err := r.DBList().Run(self.exec)
	if err != nil {
		return fmt.Errorf("list databases: %w", err)
	}
	var dbs []string
	if err := cursor.All(&dbs); err != nil {
		return fmt.Errorf("list databases: %w", err)
	}
	if !containsString(dbs, self.cfg.database) {
		self.logger.Info("creating database", "database", self.cfg.database)
		if _, err := r.DBCreate(self.cfg.database).RunWrite(self.exec); err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("create database %s: %w", self.cfg.database, err)
		}
	}

	cursor, err = r.DB(self.cfg.database).TableList().Run(self.exec)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	if err := cursor.All(&tables); err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	if !containsString(tables, self.cfg.table) {
		self.logger.Info("creating table",
			"table", self.cfg.table,
			"primary_key", self.cfg.primaryKey,
			"durability", self.cfg.durability)
		_, err := r.DB(self.cfg.database).TableCreate(self.cfg.table, r.TableCreateOpts{
			PrimaryKey: self.cfg.primaryKey,
			Durability: self.cfg.durability,
		}).RunWrite(self.exec)
		if err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("create table %s: %w", self.cfg.table, err)
		}
	}

	cursor, err = r.DB(self.cfg.database).Table(self.cfg.table).Wait().Run(self.exec)
	if err != nil {
		return fmt.Errorf("wait for table %s: %w", self.cfg.table, err)
	}
	cursor.Close()
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isAlreadyExists(err error) bool {
	return strings.Contains(err.Error(), "already exists")
}
