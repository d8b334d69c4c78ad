package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/services"
	"scribe/internal/testsupport"
)

func TestCheckDirectoryAccessOK(t *testing.T) {
	result := CheckDirectoryAccess("test", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccessNotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccessNotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "   "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %s", results[2].Detail)
	}
}

func TestRunAllReportsAllChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	results := RunAll(context.Background(), cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	for _, result := range results {
		if !result.Passed {
			t.Fatalf("check %q failed: %s", result.Name, result.Detail)
		}
	}
}

func TestVerifyFailsWhenBinaryMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	t.Setenv("PATH", t.TempDir())

	err := Verify(context.Background(), cfg)
	if err == nil {
		t.Fatal("expected error with empty PATH")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestVerifyFailsWhenDirectoryMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := os.RemoveAll(cfg.Paths.TranscriptsDir); err != nil {
		t.Fatalf("remove transcripts dir: %v", err)
	}

	err := Verify(context.Background(), cfg)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestRunAllNilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil results, got %#v", results)
	}
}
