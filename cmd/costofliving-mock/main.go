// Command costofliving-mock serves canned cost-of-living data for local development.
package main

import (
	_ "embed"
	"flag"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/Clark-Hu/thrive/internal/logging"
)

//go:embed data.json
var defaultData []byte

type costEntry struct {
	City               string             `json:"city"`
	State              string             `json:"state"`
	Costs              map[string]float64 `json:"costs"`
	Scores             map[string]float64 `json:"scores"`
	AffordabilityScore *float64           `json:"affordabilityScore"`
	Source             *string            `json:"source"`
}

func entryKey(city, state string) string {
	return strings.ToLower(strings.TrimSpace(city)) + "|" + strings.ToUpper(strings.TrimSpace(state))
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		data   = flag.String("data", "", "path to mock data file (defaults to the built-in data)")
		apiKey = flag.String("api-key", "", "require this X-API-Key when set")
		logReq = flag.Bool("log", false, "enable request logging")
	)
	flag.Parse()

	logger := logging.New(logging.Config{Format: "console", Service: "costofliving-mock"})

	file := defaultData
	if *data != "" {
		raw, err := os.ReadFile(*data)
		if err != nil {
			logger.Fatal().Err(err).Msg("read mock data")
		}
		file = raw
	}

	var raw map[string]costEntry
	if err := json.Unmarshal(file, &raw); err != nil {
		logger.Fatal().Err(err).Msg("parse mock data")
	}
	payload := make(map[string]costEntry, len(raw))
	for _, e := range raw {
		payload[entryKey(e.City, e.State)] = e
	}

	r := chi.NewRouter()
	r.Get("/costofliving", func(w http.ResponseWriter, req *http.Request) {
		if *apiKey != "" && req.Header.Get("X-API-Key") != *apiKey {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		q := req.URL.Query()
		entry, ok := payload[entryKey(q.Get("city"), q.Get("state"))]
		if *logReq {
			logger.Info().Str("city", q.Get("city")).Str("state", q.Get("state")).Bool("found", ok).Msg("lookup")
		}
		if !ok {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entry); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	addr := ":" + *port
	logger.Info().Str("addr", addr).Int("entries", len(payload)).Msg("mock cost of living listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
