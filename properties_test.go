package rethinkbench

import (
	"github.com/hhkbp2/testify/require"
	"testing"
)

func TestProperties(t *testing.T) {
	p := NewProperties()
	p.Add("rethinkdb.host", "db1:28015")
	require.Equal(t, "db1:28015", p.Get("rethinkdb.host"))
	require.Equal(t, "db1:28015", p.GetDefault("rethinkdb.host", "localhost:28015"))
	require.Equal(t, "hard", p.GetDefault("rethinkdb.durability", "hard"))
}

func TestPropertiesMergeOverwrites(t *testing.T) {
	p := NewProperties()
	p.Add("rethinkdb.host", "db1:28015")
	p.Add("rethinkdb.table", "usertable")
	p.Merge(map[string]string{
		"rethinkdb.host":       "db2:28015",
		"rethinkdb.durability": "soft",
	})
	require.Equal(t, "db2:28015", p.Get("rethinkdb.host"))
	require.Equal(t, "soft", p.Get("rethinkdb.durability"))
	require.Equal(t, "usertable", p.Get("rethinkdb.table"))
}

func TestPropertiesGetAbsent(t *testing.T) {
	p := NewProperties()
	require.Equal(t, "", p.Get("rethinkdb.port"))
}
