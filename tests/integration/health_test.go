//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestLiveness(t *testing.T) {
	resp := doGet(t, "/livez", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("livez: status %d, want 200", resp.StatusCode)
	}
}

func TestReadiness(t *testing.T) {
	resp := doGet(t, "/readyz", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz: status %d, want 200", resp.StatusCode)
	}
}

func TestAPIHealthMessage(t *testing.T) {
	resp := doGet(t, "/api/health", "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("api health: status %d, want 200", resp.StatusCode)
	}

	body := decodeJSON[messageResponse](t, resp)
	if body.Message != "SnapIt API is running!" {
		t.Fatalf("api health message: got %q", body.Message)
	}
}
