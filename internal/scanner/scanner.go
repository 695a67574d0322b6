package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-ingest/internal/logging"
	"media-ingest/internal/mediatypes"
	"media-ingest/internal/metrics"
	"media-ingest/internal/workers"
)

// Config tunes the parallel walk.
type Config struct {
	// NumWorkers is the number of classification workers (0 = auto).
	NumWorkers int
	// ChannelBuffer is the size of the job and result channel buffers.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
	// ProgressEvery invokes Progress after every N discovered media files
	// (0 disables progress reporting).
	ProgressEvery int
	// Progress receives the running count of discovered media files.
	Progress func(discovered int64)
}

// DefaultConfig returns conservative defaults that are safe on network
// filesystems.
func DefaultConfig() Config {
	return Config{
		NumWorkers:    workers.ForIO(8),
		ChannelBuffer: 1000,
		SkipHidden:    true,
		ProgressEvery: 100,
	}
}

// MediaFile is one discovered media file.
type MediaFile struct {
	Path    string
	Type    mediatypes.MediaType
	Size    int64
	ModTime time.Time
}

// ScanError records a per-file failure that did not abort the scan.
type ScanError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Outcome is the result of one complete scan.
type Outcome struct {
	Files      []MediaFile
	ImageCount int
	VideoCount int
	Errors     []ScanError
	Duration   time.Duration
}

type fileJob struct {
	path string
	info os.FileInfo
}

type fileResult struct {
	file    *MediaFile
	scanErr *ScanError
}

// Scanner walks a library root in parallel, classifying files by extension.
// Per-file failures are collected into the outcome; only a broken root
// aborts the scan.
type Scanner struct {
	config     Config
	classifier *mediatypes.Classifier

	discovered atomic.Int64
	errorCount atomic.Int64
}

func New(classifier *mediatypes.Classifier, config Config) *Scanner {
	if config.NumWorkers <= 0 {
		config.NumWorkers = workers.ForIO(8)
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 1000
	}
	return &Scanner{config: config, classifier: classifier}
}

// Scan walks root and returns every recognized media file. The root must
// exist and be a directory; anything below it that fails is recorded and
// skipped. Cancellation stops the walk and returns ctx.Err.
func (s *Scanner) Scan(ctx context.Context, root string) (*Outcome, error) {
	if root == "" {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scan root not configured")
	}
	info, err := os.Stat(root)
	if err != nil {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scan root %s: %w", root, err)
	}
	if !info.IsDir() {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	logging.Info("Starting scan of %s with %d workers", root, s.config.NumWorkers)
	start := time.Now()
	s.discovered.Store(0)
	s.errorCount.Store(0)

	jobs := make(chan fileJob, s.config.ChannelBuffer)
	results := make(chan fileResult, s.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < s.config.NumWorkers; i++ {
		wg.Add(1)
		go s.worker(ctx, &wg, jobs, results)
	}

	outcome := &Outcome{}
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for result := range results {
			if result.scanErr != nil {
				outcome.Errors = append(outcome.Errors, *result.scanErr)
				s.errorCount.Add(1)
				metrics.ScanErrors.Inc()
				continue
			}
			if result.file == nil {
				continue
			}
			outcome.Files = append(outcome.Files, *result.file)
			switch result.file.Type {
			case mediatypes.MediaTypeImage:
				outcome.ImageCount++
			case mediatypes.MediaTypeVideo:
				outcome.VideoCount++
			}
			n := s.discovered.Add(1)
			if s.config.Progress != nil && s.config.ProgressEvery > 0 && n%int64(s.config.ProgressEvery) == 0 {
				s.config.Progress(n)
			}
		}
	}()

	walkErr := s.walkAndEnqueue(ctx, root, jobs, results)

	close(jobs)
	wg.Wait()
	close(results)
	collectorWg.Wait()

	outcome.Duration = time.Since(start)

	if walkErr != nil {
		metrics.ScanRunsTotal.WithLabelValues("error").Inc()
		return nil, walkErr
	}

	metrics.ScanRunsTotal.WithLabelValues("success").Inc()
	metrics.ScanDuration.Observe(outcome.Duration.Seconds())
	metrics.ScanFilesDiscovered.WithLabelValues("image").Add(float64(outcome.ImageCount))
	metrics.ScanFilesDiscovered.WithLabelValues("video").Add(float64(outcome.VideoCount))

	logging.Info("Scan complete: %d images, %d videos in %v (errors: %d)",
		outcome.ImageCount, outcome.VideoCount, outcome.Duration, len(outcome.Errors))
	return outcome, nil
}

// walkAndEnqueue walks the tree and sends jobs to workers. Access errors
// below the root are reported as results, not walk failures.
func (s *Scanner) walkAndEnqueue(ctx context.Context, root string, jobs chan<- fileJob, results chan<- fileResult) error {
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing %s: %v", path, err)
			results <- fileResult{scanErr: &ScanError{Path: path, Message: err.Error()}}
			return nil
		}

		if s.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", path, err)
			results <- fileResult{scanErr: &ScanError{Path: path, Message: err.Error()}}
			return nil
		}

		select {
		case jobs <- fileJob{path: path, info: info}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

// worker classifies files from the jobs channel. Unrecognized extensions
// are dropped silently.
func (s *Scanner) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan fileJob, results chan<- fileResult) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		mediaType, ok := s.classifier.Classify(job.path)
		if !ok {
			continue
		}

		results <- fileResult{file: &MediaFile{
			Path:    job.path,
			Type:    mediaType,
			Size:    job.info.Size(),
			ModTime: job.info.ModTime(),
		}}
	}
}

// Stats returns the running discovery counters.
func (s *Scanner) Stats() (discovered, errors int64) {
	return s.discovered.Load(), s.errorCount.Load()
}
