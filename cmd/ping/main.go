// Command ping checks the portal's /healthz endpoint for a container
// HEALTHCHECK. It exits 0 only when the server and its database are up.
//
//	HEALTHCHECK CMD ["/ping"]
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultPort    = 8080
	healthEndpoint = "/healthz"
	healthyStatus  = "ok"
	requestTimeout = 2 * time.Second

	// exit codes
	codeRequestFailed = 2
	codeBadHTTPStatus = 3
	codeDecodeError   = 4
	codeUnhealthy     = 5
)

// healthResp mirrors the /healthz body.
type healthResp struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	target := healthURL()
	client := &http.Client{Timeout: requestTimeout}

	code, err := checkHealth(client, target)
	if err != nil {
		log.Print(err)
		os.Exit(code)
	}
	log.Printf("service healthy at %s", target)
}

// checkHealth returns a non-zero exit code with an error when target is not healthy.
func checkHealth(client *http.Client, target string) (int, error) {
	resp, err := client.Get(target)
	if err != nil {
		return codeRequestFailed, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var h healthResp
	decodeErr := json.NewDecoder(resp.Body).Decode(&h)

	if resp.StatusCode == http.StatusServiceUnavailable && decodeErr == nil {
		return codeUnhealthy, fmt.Errorf("service reported %q: %s", h.Status, h.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return codeBadHTTPStatus, fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return codeDecodeError, fmt.Errorf("decode error: %w", decodeErr)
	}
	if h.Status != healthyStatus {
		return codeUnhealthy, fmt.Errorf("service reported %q", h.Status)
	}
	return 0, nil
}

// healthURL honours HEALTH_URL, else builds localhost:APP_PORT/healthz.
func healthURL() string {
	if v := os.Getenv("HEALTH_URL"); v != "" {
		return v
	}
	port := defaultPort
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 && p <= 65535 {
			port = p
		}
	}
	return fmt.Sprintf("http://localhost:%d%s", port, healthEndpoint)
}
