package rethink

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hhkbp2/rethinkbench"
)

const (
	PropertyRethinkHost                   = "rethinkdb.host"
	PropertyRethinkHostDefault            = "localhost"
	PropertyRethinkPort                   = "rethinkdb.port"
	PropertyRethinkPortDefault            = "28015"
	PropertyRethinkDatabase               = "rethinkdb.database"
	PropertyRethinkDatabaseDefault        = "ycsb"
	PropertyRethinkTable                  = "rethinkdb.table"
	PropertyRethinkTableDefault           = "usertable"
	PropertyRethinkDurability             = "rethinkdb.durability"
	PropertyRethinkDurabilityDefault      = "hard"
	PropertyRethinkReadConsistency        = "rethinkdb.read_consistency"
	PropertyRethinkReadConsistencyDefault = ""
	PropertyRethinkPrimaryKey             = "rethinkdb.primarykey"
	PropertyRethinkPrimaryKeyDefault      = "__pk__"
	PropertyRethinkUsername               = "rethinkdb.username"
	PropertyRethinkUsernameDefault        = ""
	PropertyRethinkPassword               = "rethinkdb.password"
	PropertyRethinkPasswordDefault        = ""
	PropertyRethinkConnectTimeout         = "rethinkdb.connect_timeout"
	PropertyRethinkConnectTimeoutDefault  = "0"
	PropertyRethinkLogLevel               = "rethinkdb.loglevel"
	PropertyRethinkLogLevelDefault        = "info"
)

// config is the adapter configuration, parsed once at Init and immutable
// for the lifetime of the instance.
type config struct {
	hosts          []string
	database       string
	table          string
	primaryKey     string
	durability     string
	readMode       string
	username       string
	password       string
	connectTimeout time.Duration
	logLevel       string
}

func parseConfig(props rethinkbench.Properties) (*config, error) {
	portStr := props.GetDefault(PropertyRethinkPort, PropertyRethinkPortDefault)
	port, err := strconv.ParseInt(portStr, 0, 32)
	if err != nil || port <= 0 {
		return nil, fmt.Errorf("invalid port %q", portStr)
	}
	hostList := props.GetDefault(PropertyRethinkHost, PropertyRethinkHostDefault)
	hosts, err := parseHosts(hostList, int(port))
	if err != nil {
		return nil, err
	}
	durability := props.GetDefault(PropertyRethinkDurability, PropertyRethinkDurabilityDefault)
	switch durability {
	case "hard", "soft":
	default:
		return nil, fmt.Errorf("invalid durability %q, want hard or soft", durability)
	}
	readMode := props.GetDefault(PropertyRethinkReadConsistency, PropertyRethinkReadConsistencyDefault)
	switch readMode {
	case "", "single", "majority", "outdated":
	default:
		return nil, fmt.Errorf(
			"invalid read_consistency %q, want single, majority or outdated", readMode)
	}
	timeoutStr := props.GetDefault(PropertyRethinkConnectTimeout, PropertyRethinkConnectTimeoutDefault)
	timeoutSec, err := strconv.ParseInt(timeoutStr, 0, 32)
	if err != nil || timeoutSec < 0 {
		return nil, fmt.Errorf("invalid connect_timeout %q", timeoutStr)
	}
	return &config{
		hosts:          hosts,
		database:       props.GetDefault(PropertyRethinkDatabase, PropertyRethinkDatabaseDefault),
		table:          props.GetDefault(PropertyRethinkTable, PropertyRethinkTableDefault),
		primaryKey:     props.GetDefault(PropertyRethinkPrimaryKey, PropertyRethinkPrimaryKeyDefault),
		durability:     durability,
		readMode:       readMode,
		username:       props.GetDefault(PropertyRethinkUsername, PropertyRethinkUsernameDefault),
		password:       props.GetDefault(PropertyRethinkPassword, PropertyRethinkPasswordDefault),
		connectTimeout: time.Duration(timeoutSec) * time.Second,
		logLevel:       props.GetDefault(PropertyRethinkLogLevel, PropertyRethinkLogLevelDefault),
	}, nil
}

// parseHosts splits a comma-separated endpoint list and appends the
// configured port to any endpoint that does not name one itself.
func parseHosts(hostList string, port int) ([]string, error) {
	parts := strings.Split(hostList, ",")
	hosts := make([]string, 0, len(parts))
	for _, part := range parts {
		host := strings.TrimSpace(part)
		if len(host) == 0 {
			continue
		}
		if !strings.Contains(host, ":") {
			host = fmt.Sprintf("%s:%d", host, port)
		}
		hosts = append(hosts, host)
	}
	if len(hosts) == 0 {
		return nil, fmt.Errorf("empty host list %q", hostList)
	}
	return hosts, nil
}
