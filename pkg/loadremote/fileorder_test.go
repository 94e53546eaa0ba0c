// SPDX-License-Identifier: MPL-2.0

package loadremote

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestLoadFileOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content *string
		want    []string
		wantErr bool
	}{
		{name: "missing file"},
		{name: "blank file", content: ptr("  \n")},
		{name: "order", content: ptr(`{"FileOrder": ["setup.cake", "tasks.cake"]}`), want: []string{"setup.cake", "tasks.cake"}},
		{name: "no order key", content: ptr(`{}`)},
		{name: "invalid json", content: ptr(`{"FileOrder": [`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			if tt.content != nil {
				if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(*tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := LoadFileOrder(dir)
			if tt.wantErr {
				var ice *InvalidConfigError
				if !errors.As(err, &ice) || !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("LoadFileOrder() error = %v, want InvalidConfigError", err)
				}
				if ice.Reason != "config.json file is not in a valid json format" {
					t.Errorf("Reason = %q", ice.Reason)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFileOrder() error = %v", err)
			}
			if !slices.Equal(cfg.FileOrder, tt.want) {
				t.Errorf("FileOrder = %q, want %q", cfg.FileOrder, tt.want)
			}
		})
	}
}

func TestFileOrderConfig_Bind(t *testing.T) {
	t.Parallel()

	files := []string{"/pkg/content/alpha.cake", "/pkg/content/beta.cake", "/pkg/content/sub/gamma.cake"}

	tests := []struct {
		name    string
		order   []string
		want    []string
		wantErr bool
	}{
		{name: "no order", want: files},
		{name: "full order", order: []string{"gamma.cake", "alpha.cake", "beta.cake"}, want: []string{files[2], files[0], files[1]}},
		{name: "partial order keeps the rest", order: []string{"beta.cake"}, want: []string{files[1], files[0], files[2]}},
		{name: "case insensitive suffix", order: []string{"SUB/Gamma.cake"}, want: []string{files[2], files[0], files[1]}},
		{name: "no match", order: []string{"delta.cake"}, wantErr: true},
		{name: "ambiguous", order: []string{".cake"}, wantErr: true},
		{name: "bound twice", order: []string{"alpha.cake", "content/alpha.cake"}, wantErr: true},
		{name: "empty entry", order: []string{" "}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FileOrderConfig{FileOrder: tt.order}.Bind("/pkg/content/config.json", files)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Bind() error = %v, want ErrInvalidConfig", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Bind() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Bind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOrderFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(`{"FileOrder":["b.cake"]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	files := []string{filepath.Join(dir, "a.cake"), filepath.Join(dir, "b.cake")}

	got, err := OrderFiles(files)
	if err != nil {
		t.Fatalf("OrderFiles() error = %v", err)
	}
	if want := []string{files[1], files[0]}; !slices.Equal(got, want) {
		t.Errorf("OrderFiles() = %q, want %q", got, want)
	}
}

func ptr(s string) *string { return &s }
