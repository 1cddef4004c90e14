package download

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/handiism/gr-downloader/internal/camera"
	"github.com/handiism/gr-downloader/internal/config"
	ioutils "github.com/handiism/gr-downloader/internal/io"
	"github.com/handiism/gr-downloader/internal/model"
)

const testCatalog = `{"dirs":[
	{"name":"100RICOH","files":[
		{"n":"R0001.JPG","d":"2024-05-01T10:00:00"},
		{"n":"R0001.DNG","d":"2024-05-01T10:00:00"},
		{"n":"R0002.JPG","d":"2024-05-02T08:30:00"}
	]}
]}`

// fakeCamera serves a catalog and photo bodies and records every request path.
type fakeCamera struct {
	t       *testing.T
	catalog string
	bodies  map[string][]byte // keyed by "tag/name"
	broken  map[string]bool   // photos whose transfer is cut short

	mu       sync.Mutex
	requests []string
}

func newFakeCamera(t *testing.T, catalog string) *fakeCamera {
	return &fakeCamera{
		t:       t,
		catalog: catalog,
		bodies:  map[string][]byte{},
		broken:  map[string]bool{},
	}
}

func (c *fakeCamera) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.requests = append(c.requests, r.URL.Path)
	c.mu.Unlock()

	if r.URL.Path == CatalogPath {
		io.WriteString(w, c.catalog)
		return
	}

	key, ok := strings.CutPrefix(r.URL.Path, "/v1/photos/")
	if !ok {
		http.NotFound(w, r)
		return
	}

	if c.broken[key] {
		w.Header().Set("Content-Length", "50000")
		w.WriteHeader(http.StatusOK)
		w.Write(bytes.Repeat([]byte("z"), 512))
		w.(http.Flusher).Flush()
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			c.t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
		return
	}

	body, ok := c.bodies[key]
	if !ok {
		body = []byte("photo:" + key)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Write(body)
}

func (c *fakeCamera) requested(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.requests {
		if p == path {
			n++
		}
	}
	return n
}

func (c *fakeCamera) requestCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

func newTestManager(t *testing.T, cam http.Handler, events *[]ProgressEvent, opts ...Option) (*Manager, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(cam)
	t.Cleanup(srv.Close)

	settings := &config.Settings{
		BaseURL:         srv.URL,
		UserAgent:       "test",
		CatalogTimeout:  5,
		DownloadTimeout: 5,
	}
	m := NewManager(settings, func(e ProgressEvent) {
		if events != nil {
			*events = append(*events, e)
		}
	}, opts...)
	return m, srv
}

func TestManager_RunDownloadsSelectedPhotos(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	cam.bodies["100RICOH/R0001.JPG"] = bytes.Repeat([]byte("j"), 2048)

	var events []ProgressEvent
	m, _ := newTestManager(t, cam, &events)
	base := t.TempDir()

	summary, err := m.Run(context.Background(), model.Filter{Format: model.FormatJPG}, base)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.Found != 3 || summary.Selected != 2 || summary.Downloaded != 2 || summary.Skipped != 0 || summary.Failed != 0 {
		t.Errorf("summary = %+v", summary)
	}

	got, err := os.ReadFile(filepath.Join(base, "2024-05-01", "R0001.JPG"))
	if err != nil {
		t.Fatalf("read R0001.JPG: %v", err)
	}
	if len(got) != 2048 {
		t.Errorf("R0001.JPG size = %d, want 2048", len(got))
	}
	if _, err := os.Stat(filepath.Join(base, "2024-05-02", "R0002.JPG")); err != nil {
		t.Errorf("R0002.JPG missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(base, "2024-05-01", "R0001.DNG")); !os.IsNotExist(err) {
		t.Error("DNG downloaded despite jpg filter")
	}
	if cam.requested("/v1/photos/100RICOH/R0001.DNG") != 0 {
		t.Error("DNG requested despite jpg filter")
	}

	wantBytes := int64(2048 + len("photo:100RICOH/R0002.JPG"))
	if summary.Bytes != wantBytes {
		t.Errorf("Bytes = %d, want %d", summary.Bytes, wantBytes)
	}

	if len(events) == 0 || !strings.Contains(events[0].Message, "Found 3 photos, 2 matching") {
		t.Errorf("first event = %+v", events)
	}
}

func TestManager_RunExactFileName(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	m, _ := newTestManager(t, cam, nil)
	base := t.TempDir()

	summary, err := m.Run(context.Background(), model.Filter{Format: model.FormatJPG, FileName: "R0001.DNG"}, base)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Selected != 1 || summary.Downloaded != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if cam.requested("/v1/photos/100RICOH/R0001.DNG") != 1 {
		t.Error("expected exactly one request for R0001.DNG")
	}
}

func TestManager_DownloadOneSkipsExisting(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	m, _ := newTestManager(t, cam, nil)
	base := t.TempDir()

	photo := &model.Photo{Name: "R0001.JPG", Tag: "100RICOH", Date: "2024-05-01"}
	dest := photo.FilePath(base)
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dest, []byte("original"), 0644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		result, err := m.DownloadOne(context.Background(), photo, base, nil)
		if err != nil {
			t.Fatalf("DownloadOne error: %v", err)
		}
		if result != ResultSkipped {
			t.Errorf("result = %s, want skipped", result)
		}
	}

	if n := cam.requestCount(); n != 0 {
		t.Errorf("camera received %d requests, want 0", n)
	}
	got, _ := os.ReadFile(dest)
	if string(got) != "original" {
		t.Errorf("existing file overwritten: %q", got)
	}
}

func TestManager_RerunIsIdempotent(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	m, _ := newTestManager(t, cam, nil)
	base := t.TempDir()

	first, err := m.Run(context.Background(), model.Filter{}, base)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if first.Downloaded != 3 {
		t.Fatalf("first run downloaded %d, want 3", first.Downloaded)
	}

	second, err := m.Run(context.Background(), model.Filter{}, base)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Downloaded != 0 || second.Skipped != 3 {
		t.Errorf("second summary = %+v, want all skipped", second)
	}
	if n := cam.requested("/v1/photos/100RICOH/R0001.JPG"); n != 1 {
		t.Errorf("R0001.JPG requested %d times, want 1", n)
	}
}

func TestManager_FailedTransferLeavesNoFile(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	cam.broken["100RICOH/R0001.DNG"] = true

	var events []ProgressEvent
	m, _ := newTestManager(t, cam, &events)
	base := t.TempDir()

	photo := &model.Photo{Name: "R0001.DNG", Tag: "100RICOH", Date: "2024-05-01"}
	result, err := m.DownloadOne(context.Background(), photo, base, nil)
	if result != ResultFailed {
		t.Fatalf("result = %s, want failed", result)
	}
	if !errors.Is(err, ErrDownload) {
		t.Errorf("error %v does not wrap ErrDownload", err)
	}
	if _, statErr := os.Stat(photo.FilePath(base)); !os.IsNotExist(statErr) {
		t.Errorf("partial file left at %s", photo.FilePath(base))
	}

	// The run continues past the broken photo.
	summary, err := m.Run(context.Background(), model.Filter{}, base)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Downloaded != 2 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want 2 downloaded 1 failed", summary)
	}
	if cam.requested("/v1/photos/100RICOH/R0001.DNG") != 2 {
		t.Error("broken photo should be attempted exactly once per run")
	}

	sawError := false
	for _, e := range events {
		if e.Level == LevelError && strings.Contains(e.Message, "R0001.DNG") {
			sawError = true
		}
	}
	if !sawError {
		t.Error("no error event for the failed photo")
	}
}

func TestManager_NotFoundCountsAsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(CatalogPath, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, testCatalog)
	})
	mux.HandleFunc("/v1/photos/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	m, _ := newTestManager(t, mux, nil)
	base := t.TempDir()

	summary, err := m.Run(context.Background(), model.Filter{}, base)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Failed != 3 || summary.Downloaded != 0 {
		t.Errorf("summary = %+v", summary)
	}
	entries, _ := os.ReadDir(filepath.Join(base, "2024-05-01"))
	if len(entries) != 0 {
		t.Errorf("files left after 404s: %v", entries)
	}
}

func TestManager_CatalogErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		m, _ := newTestManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "busy", http.StatusInternalServerError)
		}), nil)
		_, err := m.Run(context.Background(), model.Filter{}, t.TempDir())
		if !errors.Is(err, ErrCatalogFetch) {
			t.Errorf("error = %v, want ErrCatalogFetch", err)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		m, srv := newTestManager(t, http.NotFoundHandler(), nil)
		srv.Close()
		_, err := m.FetchCatalog(context.Background())
		if !errors.Is(err, ErrCatalogFetch) {
			t.Errorf("error = %v, want ErrCatalogFetch", err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		cam := newFakeCamera(t, `{"files":[]}`)
		m, _ := newTestManager(t, cam, nil)
		summary, err := m.Run(context.Background(), model.Filter{}, t.TempDir())
		if !errors.Is(err, camera.ErrMalformedCatalog) {
			t.Errorf("error = %v, want ErrMalformedCatalog", err)
		}
		if summary.Downloaded != 0 || cam.requestCount() != 1 {
			t.Errorf("downloads attempted after malformed catalog")
		}
	})
}

func TestManager_InvalidBasePath(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	m, _ := newTestManager(t, cam, nil)

	photo := &model.Photo{Name: "R0001.JPG", Tag: "100RICOH", Date: "2024-05-01"}
	for _, base := range []string{"", "/tmp/../etc", "/tmp//x"} {
		result, err := m.DownloadOne(context.Background(), photo, base, nil)
		if result != ResultFailed || !errors.Is(err, ioutils.ErrInvalidPath) {
			t.Errorf("DownloadOne(base=%q) = %s, %v; want failed, ErrInvalidPath", base, result, err)
		}
	}
	for _, name := range []string{".", ".."} {
		bad := &model.Photo{Name: name, Tag: "100RICOH", Date: "2024-05-01"}
		if _, err := m.DownloadOne(context.Background(), bad, t.TempDir(), nil); !errors.Is(err, ioutils.ErrInvalidPath) {
			t.Errorf("DownloadOne(name=%q) error = %v, want ErrInvalidPath", name, err)
		}
	}
	if cam.requestCount() != 0 {
		t.Error("request issued for invalid path")
	}
}

func TestManager_DirectoryCreateFailure(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	m, _ := newTestManager(t, cam, nil)

	base := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(base, []byte("file"), 0644); err != nil {
		t.Fatal(err)
	}

	photo := &model.Photo{Name: "R0001.JPG", Tag: "100RICOH", Date: "2024-05-01"}
	result, err := m.DownloadOne(context.Background(), photo, base, nil)
	if result != ResultFailed || !errors.Is(err, ErrDirectoryCreate) {
		t.Errorf("DownloadOne = %s, %v; want failed, ErrDirectoryCreate", result, err)
	}
}

func TestManager_DuplicateNamesAcrossTags(t *testing.T) {
	catalog := `{"dirs":[
		{"name":"100RICOH","files":[{"n":"R0001.JPG","d":"2024-05-01T10:00:00"}]},
		{"name":"101RICOH","files":[{"n":"R0001.JPG","d":"2024-05-01T11:00:00"}]}
	]}`
	cam := newFakeCamera(t, catalog)
	m, _ := newTestManager(t, cam, nil)
	base := t.TempDir()

	summary, err := m.Run(context.Background(), model.Filter{}, base)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.Downloaded != 1 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 1 downloaded 1 skipped", summary)
	}
	if cam.requested("/v1/photos/101RICOH/R0001.JPG") != 0 {
		t.Error("second tag's file should be skipped by destination path")
	}
}

func TestManager_FileProgress(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	cam.bodies["100RICOH/R0002.JPG"] = bytes.Repeat([]byte("p"), 100000)

	var updates []FileProgress
	m, _ := newTestManager(t, cam, nil, WithFileProgress(func(p FileProgress) {
		updates = append(updates, p)
	}))

	_, err := m.Run(context.Background(), model.Filter{FileName: "R0002.JPG"}, t.TempDir())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(updates) == 0 {
		t.Fatal("no file progress reported")
	}
	last := updates[len(updates)-1]
	if last.Index != 1 || last.Count != 1 || last.Name != "R0002.JPG" {
		t.Errorf("last update = %+v", last)
	}
	if last.Received != 100000 || last.Total != 100000 {
		t.Errorf("last progress = %d/%d, want 100000/100000", last.Received, last.Total)
	}
}

func TestManager_DownloadStopsOnCancel(t *testing.T) {
	cam := newFakeCamera(t, testCatalog)
	m, _ := newTestManager(t, cam, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	photos := []*model.Photo{{Name: "R0001.JPG", Tag: "100RICOH", Date: "2024-05-01"}}
	summary, err := m.Download(ctx, photos, t.TempDir())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if summary.Downloaded != 0 || cam.requestCount() != 0 {
		t.Errorf("work done after cancel: %+v", summary)
	}
}

func TestResult_String(t *testing.T) {
	tests := map[Result]string{
		ResultSuccess: "success",
		ResultSkipped: "skipped",
		ResultFailed:  "failed",
		Result(9):     "Result(9)",
	}
	for r, want := range tests {
		if got := r.String(); got != want {
			t.Errorf("Result(%d).String() = %q, want %q", int(r), got, want)
		}
	}
}
