package inkpress_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/inkpress/inkpress"
)

func Test_LoadConfig_Missing_File_Returns_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := inkpress.LoadConfig(t.TempDir(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(inkpress.DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func Test_LoadConfig_File_Overrides_Defaults_Field_By_Field(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	raw := `{
		"content_dir": "posts",
		"log_level": "debug"
	}`

	if err := os.WriteFile(filepath.Join(dir, inkpress.ConfigFileName), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := inkpress.LoadConfig(dir, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ContentDir != "posts" {
		t.Errorf("content_dir = %q", cfg.ContentDir)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}

	// Fields the file does not set keep their defaults.
	if cfg.DataDir != "data" || cfg.ContentIndexFile != "content-index.db" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func Test_LoadConfig_Accepts_Comments_And_Trailing_Commas(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	raw := `{
		// where the articles live
		"content_dir": "written",
		"data_dir": "state", /* sqlite files */
	}`

	if err := os.WriteFile(filepath.Join(dir, inkpress.ConfigFileName), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := inkpress.LoadConfig(dir, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.ContentDir != "written" || cfg.DataDir != "state" {
		t.Errorf("config = %+v", cfg)
	}
}

func Test_LoadConfig_Explicit_Path_Must_Exist(t *testing.T) {
	t.Parallel()

	if _, err := inkpress.LoadConfig(t.TempDir(), "nope.json"); err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func Test_LoadConfig_Reports_Read_Failures_As_Such(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// A directory where the config file should be is unreadable, but it
	// does exist; the error must carry the real cause, not "not found".
	if err := os.Mkdir(filepath.Join(dir, inkpress.ConfigFileName), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := inkpress.LoadConfig(dir, "")
	if err == nil {
		t.Fatal("expected error")
	}

	if strings.Contains(err.Error(), "config file not found") {
		t.Errorf("read failure mislabeled as not found: %v", err)
	}

	if !strings.Contains(err.Error(), "read config") {
		t.Errorf("error does not name the read failure: %v", err)
	}
}

func Test_LoadConfig_Rejects_Invalid_JSON(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, inkpress.ConfigFileName), []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := inkpress.LoadConfig(dir, ""); err == nil {
		t.Fatal("expected error for invalid config")
	}
}

func Test_LoadConfig_Empty_File_Fields_Keep_Defaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// An empty string in the file counts as unset, not as an override.
	raw := `{"content_dir": "", "data_dir": ""}`

	if err := os.WriteFile(filepath.Join(dir, inkpress.ConfigFileName), []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := inkpress.LoadConfig(dir, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got.ContentDir != "content" || got.DataDir != "data" {
		t.Errorf("config = %+v", got)
	}
}

func Test_FormatConfig_Round_Trips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	want := inkpress.DefaultConfig()
	want.ContentDir = "articles-root"

	formatted, err := inkpress.FormatConfig(want)
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, inkpress.ConfigFileName), []byte(formatted), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := inkpress.LoadConfig(dir, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}
