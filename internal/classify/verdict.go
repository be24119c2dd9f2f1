// Package classify derives heuristic threat indicators from honeypot
// interaction records. Classification is a pure function: it runs a fixed,
// ordered set of signal checks for the record's honeypot kind and folds their
// contributions into a Verdict. It never fails for well-formed input.
package classify

// ThreatLevel is a coarse label derived from the accumulated threat score.
type ThreatLevel string

const (
	ThreatLow      ThreatLevel = "low"
	ThreatMedium   ThreatLevel = "medium"
	ThreatHigh     ThreatLevel = "high"
	ThreatCritical ThreatLevel = "critical"
)

// ScannerUnknown is the sentinel used when no tool signature matched.
const ScannerUnknown = "unknown"

// PatternUnknown is the sentinel used when no pattern candidate matched.
const PatternUnknown = "unknown"

// Verdict is the classifier's output for one interaction record. It is
// created fresh per record and never mutated after return.
type Verdict struct {
	// Indicators lists the named signals that fired, in first-trigger
	// order, without duplicates.
	Indicators []string `json:"indicators"`

	// ScannerType is the best-guess label for the offending tool, or
	// ScannerUnknown. The first signature match wins; later matches still
	// raise the score and confidence but never overwrite the name.
	ScannerType string `json:"scanner_type"`

	// ToolConfidence is the heuristic certainty, in [0, 1] rounded to two
	// decimals, that a specific automated tool produced the traffic.
	ToolConfidence float64 `json:"tool_confidence"`

	// ThreatLevel maps the accumulated score:
	//   ≥6 → critical, ≥4 → high, ≥2 → medium, else low.
	ThreatLevel ThreatLevel `json:"threat_level"`

	// IsRealBrowser is true only when no scanner or automation signature
	// matched and a genuine browser signature did.
	IsRealBrowser bool `json:"is_real_browser"`

	// ScanPattern names the dominant behavioral pattern, chosen by
	// priority among all candidates.
	ScanPattern string `json:"scan_pattern"`
}

// threatLevel maps an accumulated score to its label.
func threatLevel(score int) ThreatLevel {
	switch {
	case score >= 6:
		return ThreatCritical
	case score >= 4:
		return ThreatHigh
	case score >= 2:
		return ThreatMedium
	default:
		return ThreatLow
	}
}
