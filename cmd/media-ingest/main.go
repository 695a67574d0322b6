package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"media-ingest/internal/catalog"
	"media-ingest/internal/codecstats"
	"media-ingest/internal/config"
	"media-ingest/internal/ffmpeg"
	"media-ingest/internal/logging"
	"media-ingest/internal/media"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metadata"
	"media-ingest/internal/pipeline"
	"media-ingest/internal/scanner"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	root := flag.String("root", "", "library root to scan (overrides config)")
	cachePath := flag.String("cache", "", "thumbnail cache directory (overrides config)")
	numWorkers := flag.Int("workers", 0, "processing workers (overrides config, 0 = auto)")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *root, *cachePath, *numWorkers)
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	if err := run(cfg); err != nil {
		logging.Fatal("Ingest failed: %v", err)
	}
}

func loadConfig(path, root, cachePath string, numWorkers int) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if root != "" {
		cfg.Library.Root = root
	}
	if cachePath != "" {
		cfg.Library.CachePath = cachePath
	}
	if numWorkers > 0 {
		cfg.Scan.Workers = numWorkers
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := media.InitVips(); err != nil {
		return fmt.Errorf("init libvips: %w", err)
	}
	defer media.ShutdownVips()

	// One availability probe decides video handling for the whole run.
	ffStatus := ffmpeg.Check()
	if !ffStatus.Available {
		logging.Warn("Video files will be skipped: %s", ffStatus.Err)
	}

	cat, err := openCatalog(ctx, cfg.Catalog.DBPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	classifier, err := mediatypes.NewClassifier(cfg.Formats)
	if err != nil {
		return err
	}

	scanCfg := scanner.DefaultConfig()
	scanCfg.NumWorkers = cfg.Scan.Workers
	scanCfg.SkipHidden = !cfg.Scan.IncludeHidden
	scanCfg.Progress = func(n int64) {
		logging.Info("Discovered %d media files...", n)
	}
	scan := scanner.New(classifier, scanCfg)

	cache, err := media.NewCache(cfg.Library.CachePath)
	if err != nil {
		return err
	}
	thumbs := media.NewThumbnailer(cache)
	stats := codecstats.NewTracker()

	opts := pipeline.Options{
		Workers:      cfg.Scan.Workers,
		VideoEnabled: ffStatus.Available,
	}
	if ffStatus.Available {
		opts.VideoThumbs = media.NewFrameExtractor(thumbs, ffmpeg.NewDecoder(), stats)
		opts.VideoMeta = metadata.NewVideoReader(ffmpeg.NewProber())
	}
	p := pipeline.New(scan, thumbs, cat, opts)

	var srv *http.Server
	if cfg.Metrics.Enabled {
		srv = startObservabilityServer(cfg.Metrics.ListenAddr, stats)
		defer shutdownServer(srv)
	}

	report, err := p.Run(ctx, cfg.Library.Root)
	if err != nil {
		return err
	}

	printSummary(report, stats)
	return nil
}

func openCatalog(ctx context.Context, dbPath string) (*catalog.Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	return catalog.Open(ctx, dbPath)
}

// startObservabilityServer exposes Prometheus metrics, the codec stats
// snapshot, and a health check while the ingest runs.
func startObservabilityServer(addr string, stats *codecstats.Tracker) *http.Server {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/stats", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(stats.Snapshot()); err != nil {
			logging.Error("encode stats: %v", err)
		}
	}).Methods(http.MethodGet)
	r.HandleFunc("/stats/reset", func(w http.ResponseWriter, _ *http.Request) {
		stats.Reset()
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodPost)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logging.Info("Observability endpoint listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Observability server: %v", err)
		}
	}()
	return srv
}

func shutdownServer(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Observability server shutdown: %v", err)
	}
}

func printSummary(report *pipeline.Report, stats *codecstats.Tracker) {
	fmt.Printf("\nIngest summary:\n")
	fmt.Printf("  images ingested:  %d\n", report.ImagesIngested)
	fmt.Printf("  videos ingested:  %d\n", report.VideosIngested)
	if report.VideosSkipped > 0 {
		fmt.Printf("  videos skipped:   %d (ffmpeg unavailable)\n", report.VideosSkipped)
	}
	if report.ThumbnailFails > 0 {
		fmt.Printf("  thumbnail fails:  %d\n", report.ThumbnailFails)
	}
	fmt.Printf("  duration:         %v\n", report.Duration.Round(time.Millisecond))

	if n := len(report.ScanErrors) + len(report.Errors); n > 0 {
		fmt.Printf("  errors:           %d\n", n)
		for _, e := range report.ScanErrors {
			fmt.Printf("    scan: %s: %s\n", e.Path, e.Message)
		}
		for _, e := range report.Errors {
			fmt.Printf("    %s: %s: %s\n", e.Stage, e.Path, e.Message)
		}
	}

	if snap := stats.Snapshot(); len(snap) > 0 {
		fmt.Printf("\nCodec performance:\n")
		for _, s := range snap {
			fmt.Printf("  %-12s %5d samples  avg %8.1fms  success %5.1f%%\n",
				s.CodecName, s.SampleCount, s.AvgTimeMs, s.SuccessRate*100)
		}
	}
}
