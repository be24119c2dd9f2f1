package classify

import (
	"math"
	"strings"

	"github.com/project-guardian/guardian/internal/intake/model"
)

// baseConfidence is the floor every verdict starts from.
const baseConfidence = 0.2

// delta is a single signal check's contribution to the verdict. The fold
// applies each field independently, so a check can raise the score, floor the
// confidence, propose a pattern, and name a tool in one shot.
type delta struct {
	indicator       string  // appended if absent; "" = none
	scoreAdd        int     // added to the threat score
	confidenceFloor float64 // applied via max; 0 = no change
	scanner         string  // first non-empty assignment wins
	pattern         string  // candidate pattern; "" = none
	patternPriority int
	realBrowser     bool
}

// scoreState is the accumulator threaded through the ordered signal checks.
type scoreState struct {
	threatScore     int
	toolConfidence  float64
	scanPattern     string
	patternPriority int
	scannerType     string
	indicators      []string
	isRealBrowser   bool
}

// apply folds one delta into the state. Pattern candidates replace the
// current pattern when their priority is greater than or equal to it, so
// later checks win ties.
func (st *scoreState) apply(d delta) {
	st.threatScore += d.scoreAdd
	if d.confidenceFloor > st.toolConfidence {
		st.toolConfidence = d.confidenceFloor
	}
	if d.scanner != "" && st.scannerType == "" {
		st.scannerType = d.scanner
	}
	if d.pattern != "" && d.patternPriority >= st.patternPriority {
		st.scanPattern = d.pattern
		st.patternPriority = d.patternPriority
	}
	if d.indicator != "" {
		st.addIndicator(d.indicator)
	}
	if d.realBrowser {
		st.isRealBrowser = true
	}
}

// addIndicator appends name unless it is already present.
func (st *scoreState) addIndicator(name string) {
	for _, existing := range st.indicators {
		if existing == name {
			return
		}
	}
	st.indicators = append(st.indicators, name)
}

// finalize clamps and rounds the accumulated state into a Verdict.
func (st *scoreState) finalize() Verdict {
	scanner := st.scannerType
	if scanner == "" {
		scanner = ScannerUnknown
	}
	pattern := st.scanPattern
	if pattern == "" {
		pattern = PatternUnknown
	}

	conf := st.toolConfidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	conf = math.Round(conf*100) / 100

	indicators := st.indicators
	if indicators == nil {
		indicators = []string{}
	}

	return Verdict{
		Indicators:     indicators,
		ScannerType:    scanner,
		ToolConfidence: conf,
		ThreatLevel:    threatLevel(st.threatScore),
		IsRealBrowser:  st.isRealBrowser,
		ScanPattern:    pattern,
	}
}

// Classify inspects a normalized interaction record and derives its heuristic
// verdict. Unknown honeypot kinds yield the default low verdict with no
// indicators. The same record always produces the same Verdict.
func Classify(rec *model.InteractionRecord) Verdict {
	st := scoreState{toolConfidence: baseConfidence}

	switch strings.ToLower(rec.HoneypotKind) {
	case "http":
		f := parseHTTPFields(rec.InteractionData)
		for _, check := range httpChecks {
			// Checks see the state as of their turn in the fixed order;
			// their deltas land before the next check runs.
			for _, d := range check(f, st) {
				st.apply(d)
			}
		}
	case "ssh":
		f := parseSSHFields(rec.InteractionData)
		for _, check := range sshChecks {
			for _, d := range check(f, st) {
				st.apply(d)
			}
		}
	}

	return st.finalize()
}
