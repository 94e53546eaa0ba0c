// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/charmbracelet/log"

	"github.com/invowk/loadremote/internal/issue"
	"github.com/invowk/loadremote/internal/testutil"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	return testutil.WriteFile(t, filepath.Join(dir, ConfigFileName+"."+ConfigFileExt), content)
}

func load(t *testing.T, opts LoadOptions) (*Config, string, error) {
	t.Helper()
	if opts.EnvFile == "" {
		opts.EnvFile = "-"
	}
	return LoadWithPath(context.Background(), opts)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(PackagesPathEnv, "/opt/packages")

	cfg, path, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want none", path)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, DefaultConfig())
	}
	if cfg.InstallRoot != "/opt/packages" {
		t.Errorf("InstallRoot = %q", cfg.InstallRoot)
	}
}

func TestLoadLocalFileAndDotEnv(t *testing.T) {
	work := t.TempDir()
	testutil.WriteFiles(t, work, map[string]string{
		LocalConfigFile: "max_depth: 5\n",
		".env":          "LOADREMOTE_SCRIPT_EXTENSION=.csx\n",
	})
	t.Chdir(work)
	t.Setenv("LOADREMOTE_SCRIPT_EXTENSION", "")
	os.Unsetenv("LOADREMOTE_SCRIPT_EXTENSION")

	cfg, path, err := LoadWithPath(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != LocalConfigFile || cfg.MaxDepth != 5 {
		t.Errorf("Load() = max_depth %d from %q, want 5 from %q", cfg.MaxDepth, path, LocalConfigFile)
	}
	if cfg.ScriptExtension != ".csx" {
		t.Errorf("ScriptExtension = %q, want .csx from .env", cfg.ScriptExtension)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	want := writeConfig(t, dir, `
install_root: "/srv/tools"
script_extension: ".csx"
max_depth: 4
purge_hook: "echo purged"
log_level: "debug"
http: {
	timeout: "45s"
	retries: 5
}
cache: redis_url: "redis://localhost:6379/0"
`)

	cfg, path, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	if cfg.InstallRoot != "/srv/tools" || cfg.ScriptExtension != ".csx" || cfg.MaxDepth != 4 {
		t.Errorf("top-level fields = %+v", cfg)
	}
	if cfg.PurgeHook != "echo purged" || cfg.LogLevel.Level() != log.DebugLevel {
		t.Errorf("purge_hook/log_level = %q/%q", cfg.PurgeHook, cfg.LogLevel)
	}
	if cfg.HTTP.Timeout != 45*time.Second || cfg.HTTP.Retries != 5 || cfg.HTTP.TokenEnv != DefaultTokenEnv {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/0" || cfg.Cache.TTL != DefaultConfig().Cache.TTL {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "max_depth: 4\n")
	t.Setenv("LOADREMOTE_MAX_DEPTH", "9")
	t.Setenv("LOADREMOTE_HTTP_TIMEOUT", "2m")
	t.Setenv("LOADREMOTE_PURGE_CACHE", "true")

	cfg, _, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxDepth != 9 || cfg.HTTP.Timeout != 2*time.Minute || !cfg.PurgeCache {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envFile, []byte("LOADREMOTE_SCRIPT_EXTENSION=.csx\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Registers cleanup of the variable godotenv sets.
	t.Setenv("LOADREMOTE_SCRIPT_EXTENSION", "")
	os.Unsetenv("LOADREMOTE_SCRIPT_EXTENSION")

	cfg, _, err := load(t, LoadOptions{ConfigDirPath: dir, EnvFile: envFile})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ScriptExtension != ".csx" {
		t.Errorf("ScriptExtension = %q, want .csx from env file", cfg.ScriptExtension)
	}

	if _, _, err := load(t, LoadOptions{ConfigDirPath: dir, EnvFile: filepath.Join(dir, "missing.env")}); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		want    string
	}{
		{"syntax", "max_depth: {", nil, "load configuration"},
		{"schema type", `max_depth: "deep"`, nil, "max_depth"},
		{"schema range", "http: retries: 50", nil, "http.retries"},
		{"schema enum", `log_level: "loud"`, nil, "log_level"},
		{"schema extension", `script_extension: "cake"`, nil, "script_extension"},
		{"env validation", "", map[string]string{"LOADREMOTE_MAX_DEPTH": "0"}, "max_depth 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, _, err := load(t, LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
			if issue.Classify(err) != issue.ConfigLoadFailedId {
				t.Errorf("Classify() = %d, want ConfigLoadFailedId", issue.Classify(err))
			}
		})
	}
}

func TestLoadExplicitPath(t *testing.T) {
	dir := t.TempDir()

	_, _, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(dir, "nope.cue")})
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Fatalf("missing explicit file: error = %v, want actionable error", err)
	}

	path := filepath.Join(dir, "custom.cue")
	if err := os.WriteFile(path, []byte("max_depth: 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, got, err := load(t, LoadOptions{ConfigFilePath: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != path || cfg.MaxDepth != 7 {
		t.Errorf("Load() = %d from %q", cfg.MaxDepth, got)
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider(LoadOptions{EnvFile: "-"}).Load(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestProviderPath(t *testing.T) {
	dir := t.TempDir()
	want := writeConfig(t, dir, "max_depth: 12\n")

	p := NewProvider(LoadOptions{ConfigDirPath: dir, EnvFile: "-"})
	if p.Path() != "" {
		t.Errorf("Path() before Load = %q", p.Path())
	}
	cfg, err := p.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxDepth != 12 || p.Path() != want {
		t.Errorf("Load() = max_depth %d, Path() = %q, want 12 from %q", cfg.MaxDepth, p.Path(), want)
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.InstallRoot = "/tmp/packages"
	cfg.PurgeHook = "nuget locals all -clear"
	cfg.Cache.RedisURL = "redis://cache:6379"
	writeConfig(t, dir, GenerateCUE(cfg))

	got, _, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load(GenerateCUE()) error = %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("round trip = %+v, want %+v", got, cfg)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	created, err := WriteDefault(path)
	if err != nil || !created {
		t.Fatalf("WriteDefault() = %v, %v", created, err)
	}
	if err := os.WriteFile(path, []byte("max_depth: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	created, err = WriteDefault(path)
	if err != nil || created {
		t.Fatalf("second WriteDefault() = %v, %v, want untouched", created, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "max_depth: 3\n" {
		t.Errorf("existing file overwritten: %q", data)
	}
}

func TestDirOverride(t *testing.T) {
	SetConfigDirOverride("/tmp/cfg")
	t.Cleanup(Reset)

	path, err := Path()
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join("/tmp/cfg", "config.cue") {
		t.Errorf("Path() = %q", path)
	}
}

// TestSchemaMatchesStruct keeps the CUE field names aligned with the json
// tags viper decodes into.
func TestSchemaMatchesStruct(t *testing.T) {
	t.Parallel()

	ctx := cuecontext.New()
	schema := ctx.CompileString(Schema())
	if schema.Err() != nil {
		t.Fatal(schema.Err())
	}

	check := func(t *testing.T, val cue.Value, typ reflect.Type) {
		t.Helper()
		fields := map[string]bool{}
		iter, err := val.Fields(cue.Optional(true))
		if err != nil {
			t.Fatal(err)
		}
		for iter.Next() {
			fields[strings.TrimSuffix(iter.Selector().String(), "?")] = true
		}
		for i := range typ.NumField() {
			tag := strings.Split(typ.Field(i).Tag.Get("json"), ",")[0]
			if !fields[tag] {
				t.Errorf("%s.%s: json tag %q missing from schema", typ.Name(), typ.Field(i).Name, tag)
			}
			delete(fields, tag)
		}
		for f := range fields {
			t.Errorf("schema field %q has no %s field", f, typ.Name())
		}
	}

	check(t, schema.LookupPath(cue.ParsePath("#Config")), reflect.TypeFor[Config]())
	check(t, schema.LookupPath(cue.ParsePath("#HTTPConfig")), reflect.TypeFor[HTTPConfig]())
	check(t, schema.LookupPath(cue.ParsePath("#CacheConfig")), reflect.TypeFor[CacheConfig]())
}
