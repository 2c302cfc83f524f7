package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"shopwise/pkg/api"
	"shopwise/pkg/cache"
	"shopwise/pkg/compare"
	"shopwise/pkg/config"
	"shopwise/pkg/logger"
	"shopwise/pkg/models"
	"shopwise/pkg/platform"
	"shopwise/pkg/sources"
	"shopwise/pkg/sources/croma"
	"shopwise/pkg/sources/fixture"
	"shopwise/pkg/sources/flipkart"
	"shopwise/pkg/sources/rapidapi"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/go-faster/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
)

var service *compare.Service

func main() {
	cfg := config.Load()

	log, err := logger.Init(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	offerCache, err := cache.New(cfg.CacheDBPath, cfg.CacheTTL)
	if err != nil {
		log.Fatalw("Failed to initialize cache", "error", err)
	}
	defer offerCache.Close()

	log.Infow("Cache initialized", "path", cfg.CacheDBPath, "ttl", cfg.CacheTTL)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.CachePurgeSchedule, func() {
		n, err := offerCache.Purge()
		if err != nil {
			logger.L().Warnw("cache purge failed", "error", err)
			return
		}
		logger.Dedup("Cache purge removed %d entries", n)
	}); err != nil {
		log.Fatalw("Invalid cache purge schedule", "schedule", cfg.CachePurgeSchedule, "error", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	catalog, err := fixture.DefaultCatalog()
	if err != nil {
		log.Fatalw("Failed to load catalog", "error", err)
	}

	amazon := rapidapi.NewClient(cfg.RapidAPIEndpoint, cfg.RapidAPIHost, cfg.RapidAPIKey)

	service = compare.New(buildRegistry(cfg, amazon), catalog, cfg.ScraperConcurrency)
	service.Cache = offerCache
	service.SearchTimeout = cfg.SourceTimeout
	if cfg.LiveSources && cfg.RapidAPIKey != "" {
		service.Searcher = amazon
	}

	ip := GetOutboundIP()
	if ip != nil {
		fmt.Printf("Local Network URL: http://%s:%s\n", ip.String(), cfg.Port)
	} else {
		fmt.Println("Could not determine local IP address.")
	}
	fmt.Printf("Access URL: http://localhost:%s\n", cfg.Port)
	fmt.Printf("API Docs: http://localhost:%s/\n", cfg.Port)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Fatal(server.ListenAndServe())
}

// buildRegistry wires one source per platform. Every live source sits
// behind a fixture fallback; with live sources disabled only the
// fixtures remain.
func buildRegistry(cfg *config.Config, amazon *rapidapi.Client) *sources.Registry {
	live := map[models.Platform]sources.Source{
		models.PlatformAmazon:   amazon,
		models.PlatformFlipkart: flipkart.NewScraper(),
		models.PlatformCroma:    croma.NewScraper(),
	}
	if cfg.RapidAPIKey == "" {
		delete(live, models.PlatformAmazon)
	}

	reg := sources.NewRegistry()
	for _, p := range platform.Supported {
		f := &sources.Fallback{
			Secondary: fixture.NewSource(p),
			Timeout:   cfg.SourceTimeout,
		}
		if cfg.LiveSources {
			f.Primary = live[p]
		}
		reg.Register(p, f)
	}
	return reg
}

func newHandler() http.Handler {
	return api.WithRequestID(api.WithCORS(http.HandlerFunc(rootHandler)))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/healthz":
		api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	case r.URL.Path == "/compare":
		compareHandler(w, r)
		return
	case strings.HasPrefix(r.URL.Path, "/products/"):
		productHandler(w, r)
		return
	case r.URL.Path != "/":
		api.WriteNotFound(w, "No route for "+r.URL.Path, r.URL.Path)
		return
	}

	// Serve Scalar docs on root path
	html, err := scalargo.NewV2(
		scalargo.WithSpecDir("./"),
		scalargo.WithMetaDataOpts(
			scalargo.WithTitle("Shopwise Deal API"),
		),
	)
	if err != nil {
		api.WriteInternalServerError(w, err, r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, html)
}

func GetOutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		addrs, _ := net.InterfaceAddrs()
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					return ipnet.IP
				}
			}
		}
		return nil
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)

	return localAddr.IP
}

type compareRequest struct {
	URL string `json:"url"`
}

func compareHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		api.WriteMethodNotAllowed(w, http.MethodPost, r.URL.Path)
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteBadRequest(w, "Invalid JSON body. Expected {\"url\": \"...\"}.", r.URL.Path)
		return
	}
	defer r.Body.Close()

	result, err := service.Compare(r.Context(), req.URL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

func productHandler(w http.ResponseWriter, r *http.Request) {
	// Path expected: /products/{id} or /products/search
	parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	// parts[0] = ""
	// parts[1] = "products"
	// parts[2] = {id} or "search"

	if len(parts) != 3 || parts[2] == "" {
		api.WriteBadRequest(w, "Invalid path. Expected /products/{id} or /products/search", r.URL.Path)
		return
	}

	if parts[2] == "search" {
		if r.Method != http.MethodPost {
			api.WriteMethodNotAllowed(w, http.MethodPost, r.URL.Path)
			return
		}
		handleSearch(w, r)
		return
	}

	if r.Method != http.MethodGet {
		api.WriteMethodNotAllowed(w, http.MethodGet, r.URL.Path)
		return
	}

	q := r.URL.Query()
	option := 0
	if raw := q.Get("option"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			api.WriteBadRequest(w, fmt.Sprintf("Invalid option index: %s", raw), r.URL.Path)
			return
		}
		option = n
	}

	detail, err := service.Detail(parts[2], q.Get("retailer"), option)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, detail)
}

// searchRequest accepts limit as a number or a numeric string.
type searchRequest struct {
	Keywords string `json:"keywords"`
	Limit    any    `json:"limit"`
}

func handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		api.WriteBadRequest(w, "Invalid JSON body. Expected {\"keywords\": \"...\", \"limit\": n}.", r.URL.Path)
		return
	}
	defer r.Body.Close()

	listings, err := service.Search(r.Context(), req.Keywords, limit(req.Limit))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, map[string]any{"products": listings})
}

// limit reads a JSON number or numeric string in base 10. Anything else
// yields 0, which selects the default.
func limit(v any) int {
	n, err := strconv.Atoi(strings.TrimSpace(cast.ToString(v)))
	if err != nil {
		return 0
	}
	return n
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, platform.ErrURLRequired):
		api.WriteBadRequest(w, "A product url is required.", r.URL.Path)
	case errors.Is(err, models.ErrUnsupportedPlatform):
		api.WriteBadRequest(w, "Unsupported e-commerce platform. Available: amazon, flipkart, croma", r.URL.Path)
	case errors.Is(err, compare.ErrBadSelection):
		api.WriteBadRequest(w, err.Error(), r.URL.Path)
	case errors.Is(err, models.ErrProductNotFound):
		api.WriteNotFound(w, "Product not found", r.URL.Path)
	default:
		logger.L().Errorw("request failed",
			"request_id", w.Header().Get(api.RequestIDHeader),
			"path", r.URL.Path,
			"error", err,
		)
		api.WriteInternalServerError(w, err, r.URL.Path)
	}
}
