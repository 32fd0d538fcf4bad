// Command rethinkbench is a live smoke verifier for the RethinkDB binding.
// It drives the binding's contract against a running cluster: inserted
// records must read back intact, duplicate inserts must fail, partial
// updates must leave other fields alone, scans must come back in key order
// and deletes must stick. Per-operation latencies are reported as a
// histogram summary. The process exits non-zero if any check fails.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/codahale/hdrhistogram"
	"github.com/hashicorp/go-hclog"
	"github.com/hhkbp2/go-strftime"

	"github.com/hhkbp2/rethinkbench"
	"github.com/hhkbp2/rethinkbench/rethink"
)

var (
	configFilename = flag.String("config", "", "Specify a TOML config file")
)

func Usage() {
	fmt.Fprint(os.Stderr, "RethinkDB binding smoke verifier\n")
	fmt.Fprint(os.Stderr, "Usage: ", os.Args[0], " [options]\n")
	fmt.Fprint(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprint(os.Stderr, "\n")
}

type smokeConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	Database        string `toml:"database"`
	Table           string `toml:"table"`
	Durability      string `toml:"durability"`
	ReadConsistency string `toml:"read_consistency"`
	Records         int    `toml:"records"`
	LogLevel        string `toml:"loglevel"`
}

func defaultConfig() *smokeConfig {
	return &smokeConfig{
		Host:       "localhost",
		Port:       28015,
		Database:   "ycsb",
		Table:      "smoketable",
		Durability: "hard",
		Records:    100,
		LogLevel:   "info",
	}
}

func (self *smokeConfig) properties() rethinkbench.Properties {
	props := rethinkbench.NewProperties()
	props.Add(rethink.PropertyRethinkHost, self.Host)
	props.Add(rethink.PropertyRethinkPort, strconv.Itoa(self.Port))
	props.Add(rethink.PropertyRethinkDatabase, self.Database)
	props.Add(rethink.PropertyRethinkTable, self.Table)
	props.Add(rethink.PropertyRethinkDurability, self.Durability)
	props.Add(rethink.PropertyRethinkLogLevel, self.LogLevel)
	if len(self.ReadConsistency) > 0 {
		props.Add(rethink.PropertyRethinkReadConsistency, self.ReadConsistency)
	}
	return props
}

type measurements struct {
	order []string
	hists map[string]*hdrhistogram.Histogram
}

func newMeasurements() *measurements {
	return &measurements{
		hists: make(map[string]*hdrhistogram.Histogram),
	}
}

func (self *measurements) measure(op string, start time.Time) {
	h, ok := self.hists[op]
	if !ok {
		h = hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)
		self.hists[op] = h
		self.order = append(self.order, op)
	}
	h.RecordValue(int64(time.Since(start) / time.Microsecond))
}

func (self *measurements) report(w io.Writer) {
	fmt.Fprintf(w, "[%s] smoke check latencies in microseconds\n",
		strftime.Format("%Y-%m-%d %H:%M:%S", time.Now()))
	for _, op := range self.order {
		h := self.hists[op]
		fmt.Fprintf(w, "[%s] count=%d min=%d max=%d mean=%.2f p95=%d p99=%d\n",
			op, h.TotalCount(), h.Min(), h.Max(), h.Mean(),
			h.ValueAtQuantile(95), h.ValueAtQuantile(99))
	}
}

type checker struct {
	db     rethinkbench.DB
	table  string
	count  int
	logger hclog.Logger
	m      *measurements
	failed bool
}

func (self *checker) failf(format string, args ...interface{}) {
	self.failed = true
	self.logger.Error(fmt.Sprintf(format, args...))
}

func recordKey(i int) string {
	return fmt.Sprintf("key%08d", i)
}

func recordValues(i int) rethinkbench.KVMap {
	values := make(rethinkbench.KVMap, 10)
	for j := 1; j <= 10; j++ {
		values[fmt.Sprintf("field_%d", j)] = rethinkbench.Binary(fmt.Sprintf("value_%d_%d", i, j))
	}
	return values
}

func (self *checker) checkInserts() {
	for i := 0; i < self.count; i++ {
		start := time.Now()
		status := self.db.Insert(self.table, recordKey(i), recordValues(i))
		self.m.measure("insert", start)
		if !status.IsOK() {
			self.failf("insert %s: %s", recordKey(i), status)
		}
	}
	if status := self.db.Insert(self.table, recordKey(0), recordValues(0)); status.IsOK() {
		self.failf("duplicate insert of %s reported OK", recordKey(0))
	}
}

func (self *checker) checkReads() {
	for i := 0; i < self.count; i++ {
		key := recordKey(i)
		start := time.Now()
		record, status := self.db.Read(self.table, key, nil)
		self.m.measure("read", start)
		if !status.IsOK() {
			self.failf("read %s: %s", key, status)
			continue
		}
		expected := recordValues(i)
		if len(record) != len(expected) {
			self.failf("read %s: got %d fields, want %d", key, len(record), len(expected))
		}
		for field, want := range expected {
			if got := string(record[field]); got != string(want) {
				self.failf("read %s: %s = %q, want %q", key, field, got, want)
			}
		}
		if _, ok := record[rethink.PropertyRethinkPrimaryKeyDefault]; ok {
			self.failf("read %s: reserved key field leaked into the result", key)
		}
	}

	record, status := self.db.Read(self.table, recordKey(0), []string{"field_1"})
	if !status.IsOK() || len(record) != 1 {
		self.failf("projected read of %s: got %d fields, status %s", recordKey(0), len(record), status)
	}

	if _, status := self.db.Read(self.table, "missing_key", nil); status.Type != rethinkbench.StatusNotFound {
		self.failf("read of a missing key: got %s, want NOT_FOUND", status)
	}
}

func (self *checker) checkScans() {
	window := self.count
	if window > 10 {
		window = 10
	}
	pk := rethink.PropertyRethinkPrimaryKeyDefault
	start := time.Now()
	records, status := self.db.Scan(self.table, recordKey(0), int64(window), []string{pk, "field_1"})
	self.m.measure("scan", start)
	if !status.IsOK() {
		self.failf("scan from %s: %s", recordKey(0), status)
		return
	}
	if len(records) != window {
		self.failf("scan from %s: got %d records, want %d", recordKey(0), len(records), window)
	}
	prev := ""
	for _, record := range records {
		key := string(record[pk])
		if key <= prev {
			self.failf("scan order violated: %q after %q", key, prev)
		}
		prev = key
	}

	if records, status := self.db.Scan(self.table, recordKey(0), 0, nil); !status.IsOK() || len(records) != 0 {
		self.failf("scan with count 0: got %d records, status %s", len(records), status)
	}
}

func (self *checker) checkUpdates() {
	key := recordKey(0)
	start := time.Now()
	status := self.db.Update(self.table, key, rethinkbench.KVMap{
		"field_1": rethinkbench.Binary("updated_value"),
	})
	self.m.measure("update", start)
	if !status.IsOK() {
		self.failf("update %s: %s", key, status)
		return
	}
	record, status := self.db.Read(self.table, key, []string{"field_1", "field_2"})
	if !status.IsOK() {
		self.failf("read back of %s: %s", key, status)
		return
	}
	if got := string(record["field_1"]); got != "updated_value" {
		self.failf("update %s: field_1 = %q, want %q", key, got, "updated_value")
	}
	if got, want := string(record["field_2"]), "value_0_2"; got != want {
		self.failf("update %s touched field_2: got %q, want %q", key, got, want)
	}

	if status := self.db.Update(self.table, "missing_key", rethinkbench.KVMap{
		"field_1": rethinkbench.Binary("x"),
	}); status.IsOK() {
		self.failf("update of a missing key reported OK")
	}
}

func (self *checker) checkDeletes() {
	for i := 0; i < self.count; i++ {
		key := recordKey(i)
		start := time.Now()
		status := self.db.Delete(self.table, key)
		self.m.measure("delete", start)
		if !status.IsOK() {
			self.failf("delete %s: %s", key, status)
		}
	}
	if _, status := self.db.Read(self.table, recordKey(0), nil); status.Type != rethinkbench.StatusNotFound {
		self.failf("read after delete of %s: got %s, want NOT_FOUND", recordKey(0), status)
	}
	if status := self.db.Delete(self.table, recordKey(0)); status.IsOK() {
		self.failf("second delete of %s reported OK", recordKey(0))
	}
}

func main() {
	flag.Usage = Usage
	flag.Parse()

	cfg := defaultConfig()
	if len(*configFilename) > 0 {
		if _, err := toml.DecodeFile(*configFilename, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "cannot load config %s: %s\n", *configFilename, err)
			os.Exit(2)
		}
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:  "rethinkbench",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	db, err := rethinkbench.NewDB("rethinkdb", cfg.properties())
	if err != nil {
		logger.Error("binding setup failed", "error", err)
		os.Exit(2)
	}
	logger.Info("connecting", "host", cfg.Host, "port", cfg.Port, "table", cfg.Table)
	if err := db.Init(); err != nil {
		logger.Error("init failed", "error", err)
		os.Exit(2)
	}
	// Exit after runSmoke returns so the connection is closed on the
	// failure path too; os.Exit inside would skip the cleanup.
	os.Exit(runSmoke(db, cfg, logger, os.Stdout))
}

func runSmoke(db rethinkbench.DB, cfg *smokeConfig, logger hclog.Logger, w io.Writer) int {
	defer func() {
		if err := db.Cleanup(); err != nil {
			logger.Error("cleanup failed", "error", err)
		}
	}()

	c := &checker{
		db:     db,
		table:  cfg.Table,
		count:  cfg.Records,
		logger: logger,
		m:      newMeasurements(),
	}
	c.checkInserts()
	c.checkReads()
	c.checkScans()
	c.checkUpdates()
	c.checkDeletes()

	c.m.report(w)
	if c.failed {
		logger.Error("smoke check FAILED")
		return 1
	}
	logger.Info("smoke check passed", "records", cfg.Records)
	return 0
}
