package metrics

import (
	"strconv"

	"github.com/dborchard/cometmem/pkg/table"
	"github.com/prometheus/client_golang/prometheus"
)

// TableCollector exports the advisory counters of a changing set of tables.
type TableCollector struct {
	tables func() []table.Table

	tuples        *prometheus.Desc
	sizeBytes     *prometheus.Desc
	maxSnapshotID *prometheus.Desc
}

var _ prometheus.Collector = new(TableCollector)

func NewTableCollector(namespace string, tables func() []table.Table) *TableCollector {
	labels := []string{"id", "level"}
	return &TableCollector{
		tables: tables,
		tuples: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "table", "tuples"),
			"Number of tuples put into the table",
			labels, nil,
		),
		sizeBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "table", "size_bytes"),
			"Serialized size of the tuples put into the table",
			labels, nil,
		),
		maxSnapshotID: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "table", "max_snapshot_id"),
			"Highest snapshot id written to the table",
			labels, nil,
		),
	}
}

func (c *TableCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tuples
	ch <- c.sizeBytes
	ch <- c.maxSnapshotID
}

func (c *TableCollector) Collect(ch chan<- prometheus.Metric) {
	for _, t := range c.tables() {
		id := strconv.FormatUint(t.ID(), 10)
		level := strconv.FormatUint(uint64(t.Level()), 10)
		ch <- prometheus.MustNewConstMetric(c.tuples, prometheus.GaugeValue, float64(t.TupleCount()), id, level)
		ch <- prometheus.MustNewConstMetric(c.sizeBytes, prometheus.GaugeValue, float64(t.Size()), id, level)
		ch <- prometheus.MustNewConstMetric(c.maxSnapshotID, prometheus.GaugeValue, float64(t.MaxSnapshotID()), id, level)
	}
}
