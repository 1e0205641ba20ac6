// Package metrics exposes per-bearer PDCP statistics as Prometheus
// collectors.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"avaneesh/pdcp-lte-go/pkg/pdcp"
	"avaneesh/pdcp-lte-go/pkg/stack"
)

// Collector implements prometheus.Collector over a stack's bearers.
// Register it with a prometheus.Registerer; counters are sampled from
// the entities on every scrape.
type Collector struct {
	stack *stack.Stack

	txPDUs            *prometheus.Desc
	txBytes           *prometheus.Desc
	rxPDUs            *prometheus.Desc
	rxBytes           *prometheus.Desc
	txDroppedFull     *prometheus.Desc
	txDiscardTimeouts *prometheus.Desc
	rxMalformed       *prometheus.Desc
	rxWindowDrops     *prometheus.Desc
	rxIntegrityFails  *prometheus.Desc
	allocFailures     *prometheus.Desc
	statusReportsTx   *prometheus.Desc
	statusReportsRx   *prometheus.Desc
	storeDepth        *prometheus.Desc
}

// NewCollector creates a collector over the given stack
func NewCollector(s *stack.Stack) *Collector {
	labels := []string{"lcid"}
	return &Collector{
		stack: s,
		txPDUs: prometheus.NewDesc(
			"pdcp_tx_pdus_total", "PDUs handed to RLC", labels, nil),
		txBytes: prometheus.NewDesc(
			"pdcp_tx_bytes_total", "PDU bytes handed to RLC", labels, nil),
		rxPDUs: prometheus.NewDesc(
			"pdcp_rx_pdus_total", "PDUs delivered to upper layers", labels, nil),
		rxBytes: prometheus.NewDesc(
			"pdcp_rx_bytes_total", "SDU bytes delivered to upper layers", labels, nil),
		txDroppedFull: prometheus.NewDesc(
			"pdcp_tx_dropped_full_queue_total", "SDUs dropped on full RLC queue", labels, nil),
		txDiscardTimeouts: prometheus.NewDesc(
			"pdcp_tx_discard_timeouts_total", "SDUs discarded by timer expiry", labels, nil),
		rxMalformed: prometheus.NewDesc(
			"pdcp_rx_malformed_total", "PDUs dropped as malformed", labels, nil),
		rxWindowDrops: prometheus.NewDesc(
			"pdcp_rx_window_drops_total", "PDUs dropped by the reordering window check", labels, nil),
		rxIntegrityFails: prometheus.NewDesc(
			"pdcp_rx_integrity_failures_total", "PDUs dropped on MAC verification failure", labels, nil),
		allocFailures: prometheus.NewDesc(
			"pdcp_alloc_failures_total", "Operations skipped on buffer pool exhaustion", labels, nil),
		statusReportsTx: prometheus.NewDesc(
			"pdcp_status_reports_tx_total", "Status reports emitted", labels, nil),
		statusReportsRx: prometheus.NewDesc(
			"pdcp_status_reports_rx_total", "Status reports consumed", labels, nil),
		storeDepth: prometheus.NewDesc(
			"pdcp_undelivered_sdus", "SDUs in the undelivered store", labels, nil),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.txPDUs
	ch <- c.txBytes
	ch <- c.rxPDUs
	ch <- c.rxBytes
	ch <- c.txDroppedFull
	ch <- c.txDiscardTimeouts
	ch <- c.rxMalformed
	ch <- c.rxWindowDrops
	ch <- c.rxIntegrityFails
	ch <- c.allocFailures
	ch <- c.statusReportsTx
	ch <- c.statusReportsRx
	ch <- c.storeDepth
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.stack.ForEachBearer(func(lcid uint16, e *pdcp.Entity) {
		label := strconv.Itoa(int(lcid))
		st := e.Statistics()

		counter := func(d *prometheus.Desc, v uint64) {
			ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v), label)
		}

		counter(c.txPDUs, st.TxPDUs())
		counter(c.txBytes, st.TxBytes())
		counter(c.rxPDUs, st.RxPDUs())
		counter(c.rxBytes, st.RxBytes())
		counter(c.txDroppedFull, st.TxDroppedFullQueue())
		counter(c.txDiscardTimeouts, st.TxDiscardTimeouts())
		counter(c.rxMalformed, st.RxDroppedMalformed())
		counter(c.rxWindowDrops, st.RxDroppedWindow())
		counter(c.rxIntegrityFails, st.RxIntegrityFailures())
		counter(c.allocFailures, st.AllocFailures())
		counter(c.statusReportsTx, st.StatusReportsTx())
		counter(c.statusReportsRx, st.StatusReportsRx())

		ch <- prometheus.MustNewConstMetric(
			c.storeDepth, prometheus.GaugeValue, float64(e.StoreDepth()), label)
	})
}

// compile-time interface check
var _ prometheus.Collector = (*Collector)(nil)
