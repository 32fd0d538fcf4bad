package rethinkbench

import (
	"fmt"
)

// Binary represents arbitrary binary value(byte array).
type Binary []byte

// KVMap is the field/value mapping of a single record.
type KVMap map[string]Binary

// DB is a layer for accessing a database to be benchmarked.
// Each worker routine in the harness is given its own instance; there is no
// sharing of a DB value between routines. A DB value should be constructed
// with a no-argument constructor, have its properties set, and then be
// initialized with Init().
//
// Operations report their outcome as a Status value rather than a plain
// error: NotFound is a first-class result distinct from a fault, and a
// fault always carries its cause. The harness keeps a count of each status
// it sees and presents them to the user.
//
// The semantics of Insert, Update and Delete vary from store to store. This
// contract pins them down for the bindings in this repository: each of the
// three succeeds only when the store reports exactly one row affected, and
// a zero applied count is reported as NotFound (for Insert, an error),
// never as success.
type DB interface {
	// Set the properties for this DB.
	SetProperties(p Properties)

	// Get the properties for this DB.
	GetProperties() Properties

	// Initialize any state for this DB.
	// Called once per DB instance; there is one DB instance per client routine.
	Init() error

	// Cleanup any state for this DB.
	// Called once per DB instance; there is one DB instance per client routine.
	Cleanup() error

	// Read a record from the database.
	// Each field/value pair from the result will be returned. A nil or empty
	// fields slice selects all fields of the record.
	Read(table string, key string, fields []string) (KVMap, Status)

	// Perform a range scan for a set of records in the database, starting at
	// startKey and continuing in ascending key order for at most recordCount
	// records. An exhausted range is a valid result: an empty sequence with
	// an OK status, not NotFound.
	Scan(table string, startKey string, recordCount int64, fields []string) ([]KVMap, Status)

	// Update a record in the database. Any field/value pairs in the specified
	// values will be written into the record with the specified record key,
	// overwriting any existing values with the same field name. Fields not
	// named in values are left untouched.
	Update(table string, key string, values KVMap) Status

	// Insert a record in the database. Any field/value pairs in the specified
	// values will be written into the record with the specified record key.
	Insert(table string, key string, values KVMap) Status

	// Delete a record from the database.
	Delete(table string, key string) Status
}

type DBBase struct {
	p Properties
}

func NewDBBase() *DBBase {
	return &DBBase{}
}

func (self *DBBase) SetProperties(p Properties) {
	self.p = p
}

func (self *DBBase) GetProperties() Properties {
	return self.p
}

type MakeDBFunc func() DB

// Databases maps binding names to constructors. Bindings register
// themselves here from their package init.
var Databases = map[string]MakeDBFunc{}

func NewDB(database string, props Properties) (DB, error) {
	f, ok := Databases[database]
	if !ok {
		return nil, fmt.Errorf("unsupported database: %s", database)
	}
	db := f()
	db.SetProperties(props)
	return db, nil
}
