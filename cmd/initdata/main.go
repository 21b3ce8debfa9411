// Command initdata seeds a fresh deployment: it creates the first admin when
// none exists (or logs in as that admin) and adds fake faculty accounts.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// ----------------------------------------------------------------------------
// Config ---------------------------------------------------------------------
var (
	baseURL    = flag.String("url", env("API_BASE_URL", "http://localhost:8080"), "Server base URL")
	adminEmail = flag.String("email", env("ADMIN_EMAIL", "admin@nsec.ac.in"), "Admin e-mail")
	adminPass  = flag.String("pass", env("ADMIN_PASSWORD", ""), "Admin password (required)")
	adminName  = flag.String("name", env("ADMIN_NAME", "Placement Officer"), "Admin display name")
	domain     = flag.String("domain", env("INSTITUTION_EMAIL_DOMAIN", "nsec.ac.in"), "Mail domain for fake faculty")
	nFaculty   = flag.Int("n", envInt("COUNT", 10), "How many faculty accounts to create")
)

var specializations = []string{
	"Machine Learning", "Data Science", "VLSI Design", "Power Systems",
	"Structural Engineering", "Computer Networks", "Thermodynamics",
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return i
		}
	}
	return def
}

// ----------------------------------------------------------------------------
// HTTP helpers ---------------------------------------------------------------
func doJSON(method, path string, body any, token string) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, *baseURL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return http.DefaultClient.Do(req)
}

func must(body io.ReadCloser) []byte {
	defer body.Close()
	data, _ := io.ReadAll(body)
	return data
}

// ----------------------------------------------------------------------------
// Main -----------------------------------------------------------------------
func main() {
	flag.Parse()
	if *adminPass == "" {
		fmt.Fprintln(os.Stderr, "FATAL: -pass or ADMIN_PASSWORD is required")
		os.Exit(2)
	}
	gofakeit.Seed(time.Now().UnixNano())

	fmt.Printf("Seeding %s (admin=%s, faculty=%d)\n", *baseURL, *adminEmail, *nFaculty)

	token, err := ensureAdmin()
	if err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	if err := createFaculty(token, *nFaculty); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}

	fmt.Println("✔ done")
}

// ----------------------------------------------------------------------------
// Step 1 – make sure the first admin exists ----------------------------------
func ensureAdmin() (string, error) {
	resp, err := doJSON(http.MethodGet, "/api/v1/admin/exists", nil, "")
	if err != nil {
		return "", err
	}
	var exists struct {
		Exists bool `json:"exists"`
	}
	if err := json.Unmarshal(must(resp.Body), &exists); err != nil {
		return "", fmt.Errorf("decode exists: %w", err)
	}

	if !exists.Exists {
		payload := map[string]string{"name": *adminName, "email": *adminEmail, "password": *adminPass}
		resp, err := doJSON(http.MethodPost, "/api/v1/admin/bootstrap", payload, "")
		if err != nil {
			return "", err
		}
		switch resp.StatusCode {
		case http.StatusCreated:
			fmt.Println("• created first admin")
		case http.StatusConflict:
			fmt.Println("• first admin was created concurrently")
		default:
			return "", fmt.Errorf("bootstrap failed (%d): %s", resp.StatusCode, must(resp.Body))
		}
	}

	resp, err = doJSON(http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": *adminEmail, "password": *adminPass}, "")
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed (%d): %s", resp.StatusCode, must(resp.Body))
	}
	var r struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	_ = json.Unmarshal(must(resp.Body), &r)
	if r.Role != "admin" {
		return "", fmt.Errorf("%s is a %s account, not an admin", *adminEmail, r.Role)
	}
	fmt.Println("• logged in as admin")
	return r.Token, nil
}

// ----------------------------------------------------------------------------
// Step 2 – create faculty -----------------------------------------------------
func fakeFaculty() map[string]string {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	local := strings.ToLower(first + "." + last + strconv.Itoa(gofakeit.Number(10, 99)))
	return map[string]string{
		"name":           "Dr. " + first + " " + last,
		"email":          local + "@" + *domain,
		"phone":          "+91" + gofakeit.Numerify("9#########"),
		"password":       gofakeit.Password(true, true, true, false, false, 10) + "a1A",
		"specialization": gofakeit.RandomString(specializations),
	}
}

func createFaculty(token string, total int) error {
	for i := 1; i <= total; i++ {
		f := fakeFaculty()

		resp, err := doJSON(http.MethodPost, "/api/v1/admin/faculty", f, token)
		if err != nil {
			return err
		}
		switch resp.StatusCode {
		case http.StatusCreated:
			_ = must(resp.Body)
		case http.StatusConflict:
			fmt.Printf("  … skipped duplicate %s\n", f["email"])
			_ = must(resp.Body)
		default:
			return fmt.Errorf("create faculty %d failed (%d): %s", i, resp.StatusCode, must(resp.Body))
		}

		if i%5 == 0 || i == total {
			fmt.Printf("  … %d/%d\n", i, total)
		}
	}
	return nil
}
