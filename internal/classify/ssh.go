package classify

import "strings"

// sshFields is the typed view of an SSH interaction bag.
type sshFields struct {
	usernameAttempt string // lower-cased
	passwordAttempt string // lower-cased; "" when absent or non-string
	hasPassword     bool
	authFailures    any
	clientBanner    string // lower-cased
	commandExecuted string // lower-cased
	sessionDuration any
}

func parseSSHFields(data map[string]any) sshFields {
	password, hasPassword := data["password_attempt"].(string)
	return sshFields{
		usernameAttempt: stringField(data, "username_attempt"),
		passwordAttempt: strings.ToLower(password),
		hasPassword:     hasPassword,
		authFailures:    data["authentication_failures"],
		clientBanner:    stringField(data, "client_banner"),
		commandExecuted: stringField(data, "command_executed"),
		sessionDuration: data["session_duration_ms"],
	}
}

type sshCheck func(f sshFields, st scoreState) []delta

// sshChecks is the fixed evaluation order for SSH interactions.
var sshChecks = []sshCheck{
	checkSSHBruteForce,
	checkSSHBannerScanner,
	checkSSHCommand,
	checkSSHSessionDuration,
}

var (
	commonSSHUsernames = map[string]bool{
		"root": true, "admin": true, "administrator": true,
		"test": true, "guest": true, "pi": true,
	}
	weakSSHPasswords = map[string]bool{
		"123456": true, "password": true, "admin": true,
		"root": true, "toor": true, "qwerty": true,
	}
)

func checkSSHBruteForce(f sshFields, _ scoreState) []delta {
	failures, failuresOK := tryInt(f.authFailures)
	brute := commonSSHUsernames[f.usernameAttempt] ||
		(f.hasPassword && weakSSHPasswords[f.passwordAttempt]) ||
		(failuresOK && failures >= 3)
	if !brute {
		return nil
	}
	return []delta{{
		indicator:       "SSH-Bruteforce",
		scoreAdd:        3,
		confidenceFloor: 0.8,
		pattern:         "ssh-bruteforce",
		patternPriority: 5,
	}}
}

var sshScannerSignatures = []scannerSignature{
	{"nmap", "Nmap"},
	{"masscan", "Masscan"},
	{"shodan", "Shodan"},
	{"libssh", "libssh"},
	{"sshlib", "SSHLib"},
	{"paramiko", "Paramiko"},
}

func checkSSHBannerScanner(f sshFields, _ scoreState) []delta {
	for _, sig := range sshScannerSignatures {
		if strings.Contains(f.clientBanner, sig.substr) {
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
	return nil
}

// postExploitationTools are command substrings typical of payload staging
// after a successful login.
var postExploitationTools = []string{
	"wget", "curl", "nc", "ncat", "python", "perl", "bash", "sh", "chmod", "echo",
}

func checkSSHCommand(f sshFields, _ scoreState) []delta {
	if f.commandExecuted == "" {
		return nil
	}
	for _, tool := range postExploitationTools {
		if strings.Contains(f.commandExecuted, tool) {
			return []delta{{
				scoreAdd:        1,
				confidenceFloor: 0.75,
				pattern:         "post-exploitation",
				patternPriority: 4,
			}}
		}
	}
	return nil
}

// sessions longer than five minutes suggest the attacker is settling in.
const persistentSessionMS = 300000

func checkSSHSessionDuration(f sshFields, _ scoreState) []delta {
	duration, ok := tryFloat(f.sessionDuration)
	if !ok || duration <= persistentSessionMS {
		return nil
	}
	return []delta{{pattern: "persistent-access", patternPriority: 3}}
}
