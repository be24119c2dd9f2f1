package classify

import "strings"

// httpFields is the typed view of an HTTP interaction bag. Unknown keys in
// the bag are ignored; missing fields decode to their zero values.
type httpFields struct {
	requestPath     string // lower-cased
	queryString     string // lower-cased
	method          string // upper-cased
	userAgent       string // lower-cased
	parsedBody      map[string]any
	requestCount    any // coerced lazily by the volume check
	averageInterval any
}

func parseHTTPFields(data map[string]any) httpFields {
	body, _ := data["parsed_body"].(map[string]any)
	return httpFields{
		requestPath:     stringField(data, "request_path"),
		queryString:     stringField(data, "query_string"),
		method:          strings.ToUpper(rawString(data, "method")),
		userAgent:       stringField(data, "user_agent"),
		parsedBody:      body,
		requestCount:    data["request_count"],
		averageInterval: data["average_interval_ms"],
	}
}

// httpCheck inspects the fields against the state as of its turn in the
// evaluation order and returns its contributions.
type httpCheck func(f httpFields, st scoreState) []delta

// httpChecks is the fixed evaluation order for HTTP interactions.
var httpChecks = []httpCheck{
	checkDirectoryTraversal,
	checkCredentialStuffing,
	checkUserAgent,
	checkRequestVolume,
	checkRequestTiming,
}

// traversalMarkers are matched against the percent-decoded path+query.
// The still-encoded variants catch double encoding: one decode pass turns
// %252e%252e into %2e%2e, which the marker list then matches literally.
var traversalMarkers = []string{
	"../", "..\\", "%2e%2e", "%252e%252e", "/etc/passwd", "c:/windows",
}

func checkDirectoryTraversal(f httpFields, _ scoreState) []delta {
	combined := strings.TrimSpace(f.requestPath + " " + f.queryString)
	decoded := percentDecode(combined)
	for _, marker := range traversalMarkers {
		if strings.Contains(decoded, marker) {
			return []delta{{
				indicator:       "Directory Traversal",
				scoreAdd:        3,
				confidenceFloor: 0.75,
				pattern:         "directory-traversal",
				patternPriority: 5,
			}}
		}
	}
	return nil
}

var (
	credentialFields = []string{"username", "user", "login", "email"}
	passwordFields   = []string{"password", "pass", "pwd"}
)

func checkCredentialStuffing(f httpFields, _ scoreState) []delta {
	if f.method != "POST" && f.method != "PUT" {
		return nil
	}
	if f.parsedBody == nil {
		return nil
	}

	_, hasCredKey := f.parsedBody["credentials"]
	listValued := false
	for _, field := range append(append([]string{}, credentialFields...), passwordFields...) {
		if _, ok := f.parsedBody[field].([]any); ok {
			listValued = true
			break
		}
	}

	hasUser := anyTruthy(f.parsedBody, credentialFields)
	hasPass := anyTruthy(f.parsedBody, passwordFields)

	if (hasUser && hasPass) || listValued || hasCredKey {
		return []delta{{
			indicator:       "Credential-Stuffing",
			scoreAdd:        2,
			confidenceFloor: 0.7,
			pattern:         "credential-stuffing",
			patternPriority: 4,
		}}
	}
	return nil
}

// anyTruthy reports whether any of the keys holds a non-empty value.
func anyTruthy(body map[string]any, keys []string) bool {
	for _, k := range keys {
		if truthy(body[k]) {
			return true
		}
	}
	return false
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// scannerSignature maps a user-agent substring to the tool it identifies.
// Order matters: the first match wins.
type scannerSignature struct {
	substr string
	name   string
}

var httpScannerSignatures = []scannerSignature{
	{"nmap", "Nmap"},
	{"masscan", "Masscan"},
	{"nikto", "Nikto"},
	{"acunetix", "Acunetix"},
	{"nessus", "Nessus"},
	{"sqlmap", "SQLMap"},
	{"wpscan", "Wpscan"},
	{"gobuster", "Gobuster"},
	{"dirbuster", "Dirbuster"},
	{"shodan", "Shodan"},
	{"curl", "cURL"},
	{"wget", "Wget"},
	{"python-requests", "Python Requests"},
}

var headlessSignatures = []string{
	"headless", "phantomjs", "selenium", "httpclient", "java/", "bot",
}

var browserSignatures = []string{
	"chrome", "firefox", "safari", "edge", "opr", "trident", "msie",
}

func checkUserAgent(f httpFields, _ scoreState) []delta {
	ua := f.userAgent

	for _, sig := range httpScannerSignatures {
		if strings.Contains(ua, sig.substr) {
			return []delta{{
				indicator:       "Known Scanner",
				scanner:         sig.name,
				scoreAdd:        2,
				confidenceFloor: 0.85,
				pattern:         "reconnaissance",
				patternPriority: 2,
			}}
		}
	}

	for _, sig := range headlessSignatures {
		if strings.Contains(ua, sig) {
			return []delta{{
				scanner:         "Headless/Scripted Client",
				scoreAdd:        2,
				confidenceFloor: 0.8,
				pattern:         "automation",
				patternPriority: 1,
			}}
		}
	}

	if ua == "" {
		return nil
	}

	for _, sig := range browserSignatures {
		if strings.Contains(ua, sig) {
			return []delta{{
				scanner:         "Browser",
				confidenceFloor: 0.5,
				pattern:         "probing",
				patternPriority: 1,
				realBrowser:     true,
			}}
		}
	}

	// Non-empty UA that matched nothing still counts as probing.
	return []delta{{pattern: "probing", patternPriority: 1}}
}

func checkRequestVolume(f httpFields, _ scoreState) []delta {
	count, ok := tryInt(f.requestCount)
	if !ok {
		return nil
	}
	switch {
	case count >= 50:
		return []delta{{
			scoreAdd:        1,
			confidenceFloor: 0.65,
			pattern:         "sweeping-scan",
			patternPriority: 3,
		}}
	case count >= 10:
		return []delta{{pattern: "multi-request", patternPriority: 2}}
	}
	return nil
}

func checkRequestTiming(f httpFields, st scoreState) []delta {
	interval, ok := tryFloat(f.averageInterval)
	if !ok {
		return nil
	}
	switch {
	case interval <= 250:
		return []delta{{
			scoreAdd:        1,
			confidenceFloor: 0.7,
			pattern:         "rapid-scan",
			patternPriority: 3,
		}}
	case interval >= 2000 && st.patternPriority < 3:
		return []delta{{pattern: "slow-probing", patternPriority: 2}}
	}
	return nil
}

// percentDecode performs one tolerant percent-decoding pass: valid %XX
// escapes are decoded, anything malformed passes through unchanged.
func percentDecode(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				b.WriteByte(hi<<4 | lo)
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
