package deception

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/project-guardian/guardian/internal/intake/model"
)

// adminPathMarkers flag requests hunting for admin surfaces or config files.
var adminPathMarkers = []string{"admin", "login", "phpmyadmin", "backup", "config", ".env"}

// promptScannerUAs and promptScannerBanners select the scanner-specific
// deception hint. Narrower than the classifier tables: these drive prompt
// flavor, not detection.
var (
	promptScannerUAs     = []string{"nmap", "curl", "masscan", "gobuster"}
	promptScannerBanners = []string{"nmap", "libssh", "shodan"}
)

const basePrompt = `You are "Project Guardian", a highly capable subversive AI specialized in
digital deception. Your mission is to disorient, frustrate, and misdirect
cyber attackers by generating extremely believable but misleading information.

GEOLOCATION CAPABILITY: you may receive geographic information about the
attacker. Use it intelligently for local references, timezone-specific hints,
or ISP-related disinformation.

Observed interaction:
`

// BuildPrompt renders the natural-language instruction payload for the
// generator from a record. Timestamps missing on the record are rendered as
// the current time; this is display-only and feeds no heuristic.
func BuildPrompt(rec *model.InteractionRecord) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	ts := time.Now()
	if rec.OccurredAt != nil {
		ts = *rec.OccurredAt
	}

	snapshot := map[string]any{
		"honeypot_type":       rec.HoneypotKind,
		"source_ip":           rec.SourceIP.String(),
		"timestamp":           ts.Format(time.RFC3339),
		"interaction_details": rec.InteractionData,
		"geo_location":        rec.GeoLocation,
	}
	if encoded, err := json.MarshalIndent(snapshot, "", "  "); err == nil {
		b.Write(encoded)
	}
	b.WriteString("\n\n")

	writeGeoHints(&b, rec)

	switch strings.ToLower(rec.HoneypotKind) {
	case "http":
		writeHTTPHints(&b, rec.InteractionData)
	case "ssh":
		writeSSHHints(&b, rec.InteractionData)
	}

	b.WriteString("\nGenerate a detailed, layered deception response based on everything " +
		"above. Be creative and lead the attacker astray with believable but false " +
		"details. Your goal is to keep them busy and waste their resources.\n")

	return b.String()
}

func writeGeoHints(b *strings.Builder, rec *model.InteractionRecord) {
	if rec.CountryName == "" {
		return
	}
	b.WriteString("The attacker appears to be located in " + rec.CountryName)
	if rec.City != "" {
		b.WriteString(" (city: " + rec.City + ")")
	}
	if rec.ISP != "" {
		b.WriteString(", using ISP " + rec.ISP)
	}
	b.WriteString(". Work local references, timezone-specific hints, or " +
		"ISP-related disinformation into your answer. ")
}

func writeHTTPHints(b *strings.Builder, data map[string]any) {
	path := lowerString(data["request_path"])
	method := strings.ToUpper(asString(data["method"]))
	ua := lowerString(data["user_agent"])
	body, _ := data["parsed_body"].(map[string]any)

	b.WriteString("The attacker interacted with an HTTP service (path: " + path +
		", method: " + method + "). ")

	if containsAny(path, adminPathMarkers) {
		b.WriteString("The attacker is hunting for admin access or configuration files. " +
			"Invent a supposedly new, hidden, or outdated-but-still-active login path on " +
			"a different subsystem (for example http://dev-portal.internal.net:8443/auth/legacy) " +
			"that leads to a dead end, or point to a one-time backup archive with supposedly " +
			"valid credentials in nonexistent cold storage " +
			"(smb://archive-backup-cluster.corp/data-migration/). Include a fake ticket ID " +
			"(such as INC-2025-07-0042) and the name of an IT employee responsible for the move. ")
	}

	if body != nil && hasCredentialPair(body) {
		user := firstOf(body, "username", "user")
		b.WriteString("A login attempt was detected (user: " + user + "). Reference leaked " +
			"or aged credential archives (for example old_creds_archive_v1.zip on an FTP " +
			"server ftp://legacy-data-vault.internal.net:2121, user guest, password readOnly!) " +
			"that are worthless, or point to a forgotten developer account with test " +
			"credentials on another nonexistent system " +
			"(dev-user:TestPass_2024 on app-dev-server.internal.net:9000/api/v1/debug). ")
	}

	if containsAny(ua, promptScannerUAs) {
		b.WriteString("An automated scan or known web scanner was detected. Offer details " +
			"about a deprecated API endpoint (such as /api/v2/beta/legacy_status) or a QA " +
			"environment (http://qa-env.internal.net:8090) that only holds decoy data and " +
			"rotates daily. Mention that the endpoint requires specific headers " +
			"(X-Internal-Auth: debug-token-xyz). ")
	}
}

func writeSSHHints(b *strings.Builder, data map[string]any) {
	user := lowerString(data["username_attempt"])
	password := asString(data["password_attempt"])
	banner := lowerString(data["client_banner"])
	command := asString(data["command_executed"])

	b.WriteString("The attacker interacted with an SSH service (user: " + user + "). ")

	if user == "root" || user == "admin" || user == "administrator" {
		b.WriteString("A privileged SSH login was attempted. Provide a very convincing but " +
			"false route to privileged access: a specific VPN (SecureGateway-VPN with a " +
			"legacy client at vpn.old.corp.net) or a closed port 2222 on a jump host for " +
			"external admins (jump-external.admin.net). Mention an old access ticket number " +
			"(SSH-ACCESS-1890). ")
	}

	if password != "" {
		b.WriteString("A password was used. Give a misleading recommendation for a supposedly " +
			"secure password repository (SMB share \\\\file-vault.internal\\secure_creds_archive\\) " +
			"or an outdated password scheme applied on another system. Offer a supposedly " +
			"valid password that only ever worked once (temp_pass_XYZ123). ")
	}

	if containsAny(banner, promptScannerBanners) {
		b.WriteString("An unusual SSH client or scanner was detected. Describe an alternative " +
			"authentication method (certificate-based, reachable only from " +
			"internal-vlan-10.net) or a hidden management port (2233 on a nonexistent " +
			"service controller, service-ctrl-01.internal.net). ")
	}

	if command != "" {
		b.WriteString("A command execution was attempted. Respond as if the command failed and " +
			"point to a real but vulnerable service on a nonexistent internal server (an " +
			"outdated WebLogic instance at http://legacy-app.internal.net:7001/jmx-console). " +
			"Offer a debug session on another port (2223) that only leads to a further honeypot. ")
	}
}

// hasCredentialPair reports whether the body carries a username and password.
func hasCredentialPair(body map[string]any) bool {
	hasUser := asString(body["username"]) != "" || asString(body["user"]) != ""
	hasPass := asString(body["password"]) != "" || asString(body["pass"]) != ""
	return hasUser && hasPass
}

func firstOf(body map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(body[k]); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func lowerString(v any) string {
	return strings.ToLower(asString(v))
}

func containsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
