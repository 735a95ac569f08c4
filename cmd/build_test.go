package main

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbucharest/medmap-cli/internal/output"
)

// chdir mirrors t.Chdir (Go 1.24+) for older toolchains: it switches the
// working directory and restores the original one on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func writeTestFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func testConfig(baseURL string) string {
	return fmt.Sprintf(`source:
  path: input.csv
geocoder:
  base_url: %s
  rate_per_sec: 1000
log:
  level: error
`, baseURL)
}

func TestBuild_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat": "44.4268", "lon": "26.1025"}]`))
	}))
	defer srv.Close()

	chdir(t, t.TempDir())
	writeTestFile(t, "config.yaml", testConfig(srv.URL))
	writeTestFile(t, "input.csv",
		"Nume medic de familie,Adresa punct de lucru,Telefon\n"+
			"Dr. Popescu - Cabinet Medicina de Familie,\"Str. Exemplu 12, Sector 3, Bucuresti\",021 555 0100\n")

	rootCmd.SetArgs([]string{"build"})
	require.NoError(t, rootCmd.Execute())

	dataset, err := output.Read("output.json")
	require.NoError(t, err)
	require.Len(t, dataset, 1)
	assert.Equal(t, "Dr. Popescu - Cabinet Medicina de Familie", dataset[0].Title)
	assert.Equal(t, []string{"Str. Exemplu 12, Sector 3, Bucuresti", "021 555 0100"}, dataset[0].Description)
	assert.Equal(t, 44.4268, dataset[0].Latitude)
	assert.Equal(t, 26.1025, dataset[0].Longitude)

	_, err = os.Stat(".cache/geocode.db")
	assert.NoError(t, err, "the build should create the geocode cache")
}

func TestBuild_SecondRunHitsCache(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`[{"lat": "44.4268", "lon": "26.1025"}]`))
	}))
	defer srv.Close()

	chdir(t, t.TempDir())
	writeTestFile(t, "config.yaml", testConfig(srv.URL))
	writeTestFile(t, "input.csv",
		"Nume medic de familie,Adresa punct de lucru\n"+
			"Dr. Ionescu,\"Calea Victoriei, nr 10\"\n")

	rootCmd.SetArgs([]string{"build"})
	require.NoError(t, rootCmd.Execute())
	require.NoError(t, rootCmd.Execute())

	assert.Equal(t, 1, requests, "the second run should resolve from the cache")
}

func TestBuild_SkipGeocode(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestFile(t, "config.yaml", testConfig("http://127.0.0.1:1"))
	writeTestFile(t, "input.csv",
		"Nume medic de familie,Adresa punct de lucru\n"+
			"Dr. Ionescu,\"Calea Victoriei, nr 10\"\n")

	rootCmd.SetArgs([]string{"build", "--skip-geocode"})
	require.NoError(t, rootCmd.Execute())

	// Nothing cached, so every row misses and is omitted.
	data, err := os.ReadFile("output.json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}

func TestBuild_MalformedRowAborts(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestFile(t, "config.yaml", testConfig("http://127.0.0.1:1"))
	writeTestFile(t, "input.csv",
		"Nume medic de familie,Adresa punct de lucru\n"+
			"Dr. Ionescu,\"Calea Victoriei, nr 10\"\n"+
			"Dr. Popescu\n")

	rootCmd.SetArgs([]string{"build", "--skip-geocode"})
	require.Error(t, rootCmd.Execute())

	_, err := os.Stat("output.json")
	assert.True(t, os.IsNotExist(err), "a failed run must not leave an artifact")
}

func TestCacheClear_RequiresMatch(t *testing.T) {
	chdir(t, t.TempDir())
	writeTestFile(t, "config.yaml", testConfig("http://127.0.0.1:1"))

	rootCmd.SetArgs([]string{"cache", "clear"})
	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--match is required")
}
