package cache

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
)

func TestExporter_Export(t *testing.T) {
	c := NewInMemoryCache(3600)
	c.Set("b-key", "<p>two</p>")
	c.Set("a-key", "<p>one</p>")

	exporter := NewExporter(c)
	var buf bytes.Buffer

	err := exporter.Export(&buf, map[string]string{"source": "views/snippets"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != ExportVersion {
		t.Errorf("Expected version %s, got %s", ExportVersion, export.Version)
	}
	if len(export.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(export.Entries))
	}
	if export.Entries[0].Key != "a-key" || export.Entries[1].Key != "b-key" {
		t.Errorf("Entries should be sorted by key, got %v", export.Entries)
	}
	if export.Metadata["source"] != "views/snippets" {
		t.Errorf("Expected metadata source, got %v", export.Metadata)
	}
}

func TestExporter_UnsupportedStore(t *testing.T) {
	exporter := NewExporter(NoopCache{})

	var buf bytes.Buffer
	err := exporter.Export(&buf, nil)
	if err == nil {
		t.Fatal("Expected error for store without Entries")
	}
	if !strings.Contains(err.Error(), "does not support export") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestImporter_Import(t *testing.T) {
	jsonData := `{
		"version": "1.0",
		"exported_at": "2024-01-01T00:00:00Z",
		"entries": [
			{"key": "key1", "value": "<p>one</p>"},
			{"key": "key2", "value": "<p>two</p>"},
			{"key": "", "value": "orphan"}
		],
		"metadata": {"source": "views/snippets"}
	}`

	c := NewInMemoryCache(3600)
	importer := NewImporter(c)

	result, err := importer.Import(strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failed (empty key), got %d", result.Failed)
	}
	if val, ok := c.Get("key2"); !ok || val != "<p>two</p>" {
		t.Errorf("key2 not found or wrong value: %s", val)
	}
}

func TestImporter_UnsupportedVersion(t *testing.T) {
	importer := NewImporter(NewInMemoryCache(0))

	_, err := importer.Import(strings.NewReader(`{"version": "9.9", "entries": []}`))
	if err == nil {
		t.Fatal("Expected error for unknown version")
	}
}

func TestImporter_InvalidJSON(t *testing.T) {
	importer := NewImporter(NewInMemoryCache(3600))

	_, err := importer.Import(strings.NewReader("invalid json"))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestExportImport_DiskToMemory(t *testing.T) {
	src, err := NewDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskCache failed: %v", err)
	}
	src.Set("abc:1.10", "<p>cached</p>")
	src.Set("def:2.20", "<p>other</p>")

	path := filepath.Join(t.TempDir(), "export.json")
	if err := NewExporter(src).ExportToFile(path, nil); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	dst := NewInMemoryCache(0)
	result, err := NewImporter(dst).ImportFromFile(path)
	if err != nil {
		t.Fatalf("ImportFromFile failed: %v", err)
	}
	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	if val, ok := dst.Get("abc:1.10"); !ok || val != "<p>cached</p>" {
		t.Errorf("abc:1.10 not found or wrong value: %q", val)
	}
}
