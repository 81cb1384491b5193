package db

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAttachAdminRoutes(t *testing.T) {
	db := setupTestDB(t)
	if err := db.RecordRun(okResult("run-1", t0)); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	mux := http.NewServeMux()
	if err := db.AttachAdminRoutes(mux); err != nil {
		t.Fatalf("AttachAdminRoutes failed: %v", err)
	}

	for _, path := range []string{"/debug/", "/debug/tailsql/", "/debug/backup"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
			// Access control may answer 403 for a non-local client; only a
			// missing route is a failure.
			if w.Code == http.StatusNotFound {
				t.Errorf("route %s should be registered, got 404", path)
			}
		})
	}
}

func TestBackupHandler(t *testing.T) {
	db := setupTestDB(t)
	if err := db.RecordRun(okResult("run-1", t0)); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	w := httptest.NewRecorder()
	db.backupHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/backup", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=scenario-history-") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	gz, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("backup is not gzip: %v", err)
	}
	data, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("SQLite format 3\x00")) {
		t.Errorf("backup does not look like a sqlite database (%d bytes)", len(data))
	}
}
