package ycsb

import (
	"context"
	"errors"
	"testing"

	"github.com/hhkbp2/rethinkbench"
	"github.com/hhkbp2/testify/require"
)

// stubDB scripts one status per operation so the bridge mapping can be
// checked without a driver.
type stubDB struct {
	*rethinkbench.DBBase
	record     rethinkbench.KVMap
	records    []rethinkbench.KVMap
	status     rethinkbench.Status
	lastTable  string
	lastKey    string
	lastValues rethinkbench.KVMap
	cleanedUp  bool
}

func (self *stubDB) Init() error {
	return nil
}

func (self *stubDB) Cleanup() error {
	self.cleanedUp = true
	return nil
}

func (self *stubDB) Read(table string, key string, fields []string) (rethinkbench.KVMap, rethinkbench.Status) {
	self.lastTable, self.lastKey = table, key
	return self.record, self.status
}

func (self *stubDB) Scan(table string, startKey string, recordCount int64, fields []string) ([]rethinkbench.KVMap, rethinkbench.Status) {
	self.lastTable, self.lastKey = table, startKey
	return self.records, self.status
}

func (self *stubDB) Update(table string, key string, values rethinkbench.KVMap) rethinkbench.Status {
	self.lastTable, self.lastKey, self.lastValues = table, key, values
	return self.status
}

func (self *stubDB) Insert(table string, key string, values rethinkbench.KVMap) rethinkbench.Status {
	self.lastTable, self.lastKey, self.lastValues = table, key, values
	return self.status
}

func (self *stubDB) Delete(table string, key string) rethinkbench.Status {
	self.lastTable, self.lastKey = table, key
	return self.status
}

func newStub(status rethinkbench.Status) (*stubDB, *rethinkDB) {
	stub := &stubDB{
		DBBase: rethinkbench.NewDBBase(),
		status: status,
	}
	return stub, &rethinkDB{db: stub}
}

func TestBridgeRead(t *testing.T) {
	stub, bridge := newStub(rethinkbench.OK())
	stub.record = rethinkbench.KVMap{"field_1": rethinkbench.Binary("value_1")}

	row, err := bridge.Read(context.Background(), "usertable", "1", nil)
	require.Nil(t, err)
	require.Equal(t, []byte("value_1"), row["field_1"])
	require.Equal(t, "usertable", stub.lastTable)
	require.Equal(t, "1", stub.lastKey)
}

func TestBridgeReadNotFound(t *testing.T) {
	_, bridge := newStub(rethinkbench.NotFound())
	_, err := bridge.Read(context.Background(), "usertable", "missing", nil)
	require.Equal(t, ErrNotFound, err)
}

func TestBridgeReadError(t *testing.T) {
	cause := errors.New("connection reset")
	_, bridge := newStub(rethinkbench.Errored(cause))
	_, err := bridge.Read(context.Background(), "usertable", "1", nil)
	require.Equal(t, cause, err)
}

func TestBridgeScan(t *testing.T) {
	stub, bridge := newStub(rethinkbench.OK())
	stub.records = []rethinkbench.KVMap{
		{"field_1": rethinkbench.Binary("value_1")},
		{"field_1": rethinkbench.Binary("value_1")},
	}

	rows, err := bridge.Scan(context.Background(), "usertable", "1", 10, []string{"field_1"})
	require.Nil(t, err)
	require.Equal(t, 2, len(rows))
	require.Equal(t, []byte("value_1"), rows[0]["field_1"])
}

func TestBridgeWrites(t *testing.T) {
	stub, bridge := newStub(rethinkbench.OK())
	values := map[string][]byte{"field_1": []byte("value_1")}

	require.Nil(t, bridge.Insert(context.Background(), "usertable", "1", values))
	require.Equal(t, rethinkbench.Binary("value_1"), stub.lastValues["field_1"])
	require.Nil(t, bridge.Update(context.Background(), "usertable", "1", values))
	require.Nil(t, bridge.Delete(context.Background(), "usertable", "1"))
}

func TestBridgeWriteNotFound(t *testing.T) {
	_, bridge := newStub(rethinkbench.NotFound())
	err := bridge.Update(context.Background(), "usertable", "missing",
		map[string][]byte{"field_1": []byte("x")})
	require.Equal(t, ErrNotFound, err)
	require.Equal(t, ErrNotFound, bridge.Delete(context.Background(), "usertable", "missing"))
}

func TestBridgeStatusWithoutCause(t *testing.T) {
	_, bridge := newStub(rethinkbench.Status{Type: rethinkbench.StatusUnexpectedState})
	err := bridge.Delete(context.Background(), "usertable", "1")
	require.NotNil(t, err)
	require.Equal(t, "UNEXPECTED_STATE", err.Error())
}

func TestBridgeClose(t *testing.T) {
	stub, bridge := newStub(rethinkbench.OK())
	require.Nil(t, bridge.Close())
	require.True(t, stub.cleanedUp)
}
