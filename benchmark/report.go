package benchmark

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"code.cloudfoundry.org/bytefmt"
)

// PrintSummary renders the final report. The numeric fields of RunResult are
// the engine's output contract; this rendering is presentation only.
func PrintSummary(w io.Writer, cfg *Config, res RunResult) {
	took := float64(res.DurationMillis) / 1e3

	fmt.Fprintf(w, "\nSummary:\n")
	fmt.Fprintf(w, "Issued %d %s commands in %0.3fsec with %d clients (payload %sB)\n",
		res.TotalRequests, cfg.Command, took, cfg.Clients, bytefmt.ByteSize(uint64(cfg.DataSize)))
	fmt.Fprintf(w, "\tThroughput: %0.0f ops/sec\n", res.Throughput)
	fmt.Fprintf(w, "\tErrors: %d\n", res.Errors)
	fmt.Fprintf(w, "\tLatency: min %0.3f ms, avg %0.3f ms, max %0.3f ms\n",
		res.MinLatencyMs, res.AvgLatencyMs, res.MaxLatencyMs)
	fmt.Fprintf(w, "\tPercentiles: q50 %0.3f ms, q95 %0.3f ms, q99 %0.3f ms\n",
		res.P50LatencyMs, res.P95LatencyMs, res.P99LatencyMs)
	if took > 0 {
		fmt.Fprintf(w, "\tTX rate: %sB/sec, RX rate: %sB/sec\n",
			bytefmt.ByteSize(uint64(float64(res.TxBytes)/took)),
			bytefmt.ByteSize(uint64(float64(res.RxBytes)/took)))
	}
}

// WriteJSON stores the result for later comparison between runs.
func WriteJSON(path string, res RunResult) error {
	data, err := json.MarshalIndent(res, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
