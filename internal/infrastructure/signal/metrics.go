package signal

import "time"

// Metrics is the subset of the collector the gateway's connection paths
// report to. A nil recorder disables reporting.
type Metrics interface {
	RecordSessionOpened()
	RecordSessionClosed()
	RecordSignalMessage(messageType string)
	RecordRelay(delivered int)

	RecordAnalysisOpened()
	RecordAnalysisClosed()
	RecordFrameAnalyzed(isFake bool, duration time.Duration)
}
