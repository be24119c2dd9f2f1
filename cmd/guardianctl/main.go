package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	apiKey    string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "guardianctl",
	Short: "Project Guardian intake CLI",
	Long: `guardianctl is the operator CLI for the Project Guardian intake service.

It sends test honeypot events and USB beacons against a running intake
server and generates sensor API keys.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.guardianctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if apiKey == "" {
			apiKey = viper.GetString("api_key")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.guardianctl/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "intake server base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "sensor API key sent in X-API-Key")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(beaconCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(versionCmd)
}

// ── send ─────────────────────────────────────────────────────────────────────

var (
	sendFile string
	sendKind string
	sendIP   string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a honeypot event to the intake server",
	Long: `Send posts a honeypot event to /api/v1/honeypot/events.

Without --file a built-in sample event is used; --kind and --source-ip
override its honeypot type and source address:

  guardianctl send --api-key s3cret --kind ssh --source-ip 203.0.113.7
  guardianctl send --api-key s3cret --file event.json`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendFile, "file", "", "Read the event JSON from this file instead of the built-in sample")
	sendCmd.Flags().StringVar(&sendKind, "kind", "http", "Honeypot type for the sample event")
	sendCmd.Flags().StringVar(&sendIP, "source-ip", "198.51.100.23", "Source address for the sample event")
}

func runSend(cmd *cobra.Command, args []string) error {
	var body []byte
	if sendFile != "" {
		data, err := os.ReadFile(sendFile)
		if err != nil {
			return fmt.Errorf("read event file: %w", err)
		}
		body = data
	} else {
		sample := map[string]any{
			"source_ip":     sendIP,
			"honeypot_type": sendKind,
			"interaction_data": map[string]any{
				"request_method": "GET",
				"request_path":   "/admin/../../etc/passwd",
				"user_agent":     "Nmap Scripting Engine",
			},
		}
		if sendKind == "ssh" {
			sample["interaction_data"] = map[string]any{
				"username_attempt": "root",
				"password_attempt": "123456",
				"client_banner":    "SSH-2.0-libssh_0.9.6",
			}
		}
		var err error
		body, err = json.Marshal(sample)
		if err != nil {
			return err
		}
	}

	return postJSON(cmd.Context(), "/api/v1/honeypot/events", body)
}

// ── beacon ───────────────────────────────────────────────────────────────────

var (
	beaconStickID string
	beaconHost    string
	beaconUser    string
	beaconIP      string
	beaconPayload string
)

var beaconCmd = &cobra.Command{
	Use:   "beacon",
	Short: "Send a USB drop beacon to the intake server",
	RunE:  runBeacon,
}

func init() {
	beaconCmd.Flags().StringVar(&beaconStickID, "stick-id", "stick-test", "USB stick identifier")
	beaconCmd.Flags().StringVar(&beaconHost, "hostname", "WKS-TEST", "Reporting hostname")
	beaconCmd.Flags().StringVar(&beaconUser, "username", "tester", "Reporting username")
	beaconCmd.Flags().StringVar(&beaconIP, "internal-ip", "10.0.0.10", "Internal IP of the reporting host")
	beaconCmd.Flags().StringVar(&beaconPayload, "payload", "Gehaltsliste.xlsx", "Opened payload name")
}

func runBeacon(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(map[string]any{
		"usb_stick_id": beaconStickID,
		"hostname":     beaconHost,
		"username":     beaconUser,
		"internal_ip":  beaconIP,
		"payload_name": beaconPayload,
	})
	if err != nil {
		return err
	}
	return postJSON(cmd.Context(), "/api/v1/usb/beacon", body)
}

// ── keygen ───────────────────────────────────────────────────────────────────

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a random sensor API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		fmt.Println(hex.EncodeToString(buf))
		return nil
	},
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the guardianctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("guardianctl", version)
	},
}

// ── HTTP helper ──────────────────────────────────────────────────────────────

func postJSON(ctx context.Context, path string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, respBody)
	}

	// Pretty-print the server response.
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, respBody, "", "  "); err != nil {
		fmt.Println(string(respBody))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
