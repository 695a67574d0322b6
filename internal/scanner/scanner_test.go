package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"media-ingest/internal/mediatypes"
)

func newTestScanner(t *testing.T) *Scanner {
	t.Helper()
	classifier, err := mediatypes.NewClassifier(mediatypes.FormatConfig{
		ImageFormats: mediatypes.DefaultImageFormats,
		VideoFormats: mediatypes.DefaultVideoFormats,
	})
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.NumWorkers = 2
	return New(classifier, cfg)
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanClassifiesTree(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.jpg"))
	touch(t, filepath.Join(root, "sub", "b.PNG"))
	touch(t, filepath.Join(root, "sub", "deep", "c.mp4"))
	touch(t, filepath.Join(root, "notes.txt"))
	touch(t, filepath.Join(root, "README"))

	s := newTestScanner(t)
	outcome, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if outcome.ImageCount != 2 {
		t.Errorf("ImageCount = %d, want 2", outcome.ImageCount)
	}
	if outcome.VideoCount != 1 {
		t.Errorf("VideoCount = %d, want 1", outcome.VideoCount)
	}
	if len(outcome.Files) != 3 {
		t.Errorf("len(Files) = %d, want 3 (non-media files must be skipped)", len(outcome.Files))
	}
	if len(outcome.Errors) != 0 {
		t.Errorf("Errors = %v, want none", outcome.Errors)
	}

	var paths []string
	for _, f := range outcome.Files {
		paths = append(paths, filepath.Base(f.Path))
	}
	sort.Strings(paths)
	want := []string{"a.jpg", "b.PNG", "c.mp4"}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("paths = %v, want %v", paths, want)
			break
		}
	}
}

func TestScanSkipsHidden(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "visible.jpg"))
	touch(t, filepath.Join(root, ".hidden.jpg"))
	touch(t, filepath.Join(root, ".cache", "thumb.jpg"))

	s := newTestScanner(t)
	outcome, err := s.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(outcome.Files) != 1 {
		t.Errorf("len(Files) = %d, want 1 (hidden entries skipped)", len(outcome.Files))
	}
}

func TestScanEmptyDirectory(t *testing.T) {
	s := newTestScanner(t)
	outcome, err := s.Scan(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("Scan of empty dir failed: %v", err)
	}
	if len(outcome.Files) != 0 || outcome.ImageCount != 0 || outcome.VideoCount != 0 {
		t.Errorf("empty dir outcome = %+v, want all zero", outcome)
	}
}

func TestScanRootValidation(t *testing.T) {
	s := newTestScanner(t)

	if _, err := s.Scan(context.Background(), ""); err == nil {
		t.Error("empty root should fail fast")
	}
	if _, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("nonexistent root should fail fast")
	}

	file := filepath.Join(t.TempDir(), "plain.txt")
	touch(t, file)
	if _, err := s.Scan(context.Background(), file); err == nil {
		t.Error("non-directory root should fail fast")
	}
}

func TestScanCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 50; i++ {
		touch(t, filepath.Join(root, "dir", "img"+string(rune('a'+i%26))+".jpg"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScanner(t)
	if _, err := s.Scan(ctx, root); err == nil {
		t.Error("cancelled context should abort the scan with an error")
	}
}

func TestScanProgressCallback(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 10; i++ {
		touch(t, filepath.Join(root, filepath.Base(t.Name())+string(rune('a'+i))+".jpg"))
	}

	var reports []int64
	classifier, _ := mediatypes.NewClassifier(mediatypes.FormatConfig{
		ImageFormats: mediatypes.DefaultImageFormats,
		VideoFormats: mediatypes.DefaultVideoFormats,
	})
	s := New(classifier, Config{
		NumWorkers:    1,
		SkipHidden:    true,
		ProgressEvery: 5,
		Progress:      func(n int64) { reports = append(reports, n) },
	})

	if _, err := s.Scan(context.Background(), root); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(reports) != 2 {
		t.Errorf("progress reports = %v, want callbacks at 5 and 10", reports)
	}
}
