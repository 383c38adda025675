package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/catalog/internal/catalog"
)

const export = "cse_prod,cve_prod,desc_prod,existencias,cve_image,verificado\n" +
	"licor,A1,Mezcal Joven 750ml,7,mz.jpg,VERDADERO\n" +
	"licor,A2,\"Mezcal Joven, 1L\",x,mz.jpg,no\n"

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

func TestRun_File(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), options{file: writeExport(t, export), maxBytes: 1 << 20}, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	var cat catalog.Catalog
	if err := json.Unmarshal(out.Bytes(), &cat); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := catalog.Stats{TotalRows: 2, ValidRows: 1, Products: 1}
	if cat.Stats != want {
		t.Errorf("Stats = %+v, want %+v", cat.Stats, want)
	}
	if cat.Products[0].Name != "Mezcal Joven" || cat.Products[0].Presentations[0].Stock != 7 {
		t.Errorf("product = %+v", cat.Products[0])
	}
}

func TestRun_Rows(t *testing.T) {
	var out bytes.Buffer
	opts := options{file: writeExport(t, export), rows: true, maxBytes: 1 << 20}
	if err := run(context.Background(), opts, &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), `"Mezcal Joven, 1L"`) {
		t.Errorf("rows output lost quoting: %s", out.String())
	}
}

func TestRun_OutFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "catalog.json")
	opts := options{file: writeExport(t, export), out: outPath, pretty: true, maxBytes: 1 << 20}

	var stdout bytes.Buffer
	if err := run(context.Background(), opts, &stdout); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Error("wrote to stdout despite -out")
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Contains(data, []byte("\n  \"products\"")) {
		t.Errorf("output not indented: %s", data)
	}
}

func TestRun_Errors(t *testing.T) {
	t.Run("column mismatch", func(t *testing.T) {
		err := run(context.Background(), options{file: writeExport(t, "sku,name\n"), maxBytes: 1 << 20}, &bytes.Buffer{})
		if !errors.Is(err, catalog.ErrColumnMismatch) {
			t.Errorf("run() error = %v, want ErrColumnMismatch", err)
		}
	})

	t.Run("no input", func(t *testing.T) {
		if err := run(context.Background(), options{}, &bytes.Buffer{}); err == nil {
			t.Error("run() without -file or -url should fail")
		}
	})
}
