package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wricardo/mcp-training/tilepuzzle/game/engine"
)

func createValidPack() *engine.LevelPack {
	return &engine.LevelPack{
		Name:         "Test Pack",
		Description:  "Test level pack",
		Cols:         3,
		Rows:         3,
		BoardSize:    5,
		SnapDistance: 0.3,
		SpawnMargin:  0.5,
		Images:       []string{"images/one.png", "images/two.png"},
	}
}

func writePackFile(t *testing.T, dir, name string, pack *engine.LevelPack) {
	t.Helper()
	data, err := json.MarshalIndent(pack, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal pack: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write pack file: %v", err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		pack := createValidPack()
		pack.Name = "Default"
		writePackFile(t, dir, "default", pack)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Default" {
			t.Errorf("Expected first pack as default, got %q", manager.GetDefault().Name)
		}
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		if err == nil {
			t.Error("Expected error for non-existent directory")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		if err != nil {
			t.Fatalf("NewManager should succeed without pack files, got %v", err)
		}
		def := manager.GetDefault()
		if def == nil {
			t.Fatal("Expected minimal default pack")
		}
		if def.Cols != 3 || len(def.Images) != 0 {
			t.Errorf("Unexpected minimal pack: %+v", def)
		}
	})

	t.Run("classic preferred", func(t *testing.T) {
		dir := t.TempDir()
		a := createValidPack()
		a.Name = "Alpha"
		writePackFile(t, dir, "alpha", a)
		c := createValidPack()
		c.Name = "Classic"
		writePackFile(t, dir, "classic", c)

		manager, err := NewManager(dir)
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}
		if manager.GetDefault().Name != "Classic" {
			t.Errorf("Expected classic default, got %q", manager.GetDefault().Name)
		}
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()

	easy := createValidPack()
	easy.Name = "Easy"
	easy.Cols, easy.Rows = 2, 2
	writePackFile(t, dir, "easy", easy)

	yamlPack := []byte(`name: Landscapes
description: YAML pack
cols: 4
rows: 4
images:
  - lake.jpg
board_center:
  x: 1.5
  y: -2
`)
	if err := os.WriteFile(filepath.Join(dir, "landscapes.yaml"), yamlPack, 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	t.Run("load existing json", func(t *testing.T) {
		pack, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config: %v", err)
		}
		if pack.Name != "Easy" || pack.Cols != 2 {
			t.Errorf("Unexpected pack: %+v", pack)
		}
		if pack.PieceSlots != 4 {
			t.Errorf("Expected defaulted piece slots 4, got %d", pack.PieceSlots)
		}
	})

	t.Run("load with extension", func(t *testing.T) {
		pack, err := manager.LoadConfig("easy.json")
		if err != nil {
			t.Fatalf("Failed to load config with extension: %v", err)
		}
		if pack.Name != "Easy" {
			t.Errorf("Expected 'Easy', got %q", pack.Name)
		}
	})

	t.Run("load yaml with defaults", func(t *testing.T) {
		pack, err := manager.LoadConfig("landscapes")
		if err != nil {
			t.Fatalf("Failed to load YAML pack: %v", err)
		}
		if pack.Cols != 4 || pack.Rows != 4 {
			t.Errorf("Expected 4x4, got %dx%d", pack.Cols, pack.Rows)
		}
		if pack.BoardSize != 5 || pack.SnapDistance != 0.3 || pack.SpawnMargin != 0.5 {
			t.Errorf("Expected defaults applied, got %+v", pack)
		}
		if pack.BoardCenter != (engine.Vec2{X: 1.5, Y: -2}) {
			t.Errorf("Unexpected board center %+v", pack.BoardCenter)
		}
	})

	t.Run("load from cache", func(t *testing.T) {
		a, _ := manager.LoadConfig("easy")
		b, err := manager.LoadConfig("easy")
		if err != nil {
			t.Fatalf("Failed to load config from cache: %v", err)
		}
		if a != b {
			t.Error("Expected config to be loaded from cache")
		}
	})

	t.Run("load non-existent config", func(t *testing.T) {
		_, err := manager.LoadConfig("non-existent")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("reject path traversal", func(t *testing.T) {
		_, err := manager.LoadConfig("../easy")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("Expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("load invalid config", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "invalid.json"), []byte(`{"name": "x", "cols": 40, "images": ["a.png"]}`), 0644); err != nil {
			t.Fatal(err)
		}
		_, err := manager.LoadConfig("invalid")
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("Expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("load malformed JSON", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "malformed.json"), []byte(`{"name": "Malformed", invalid json}`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := manager.LoadConfig("malformed"); err == nil {
			t.Error("Expected error for malformed JSON")
		}
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"default", "easy", "medium", "hard"} {
		pack := createValidPack()
		pack.Name = name + " pack"
		writePackFile(t, dir, name, pack)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("readme"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("name: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	list, err := manager.ListConfigs()
	if err != nil {
		t.Fatalf("Failed to list configs: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("Expected 4 configs, got %d", len(list))
	}
	// Sorted by id
	want := []string{"default", "easy", "hard", "medium"}
	for i, info := range list {
		if info.ConfigID != want[i] {
			t.Errorf("list[%d] = %q, want %q", i, info.ConfigID, want[i])
		}
		if info.Levels != 2 || info.Cols != 3 {
			t.Errorf("Unexpected info %+v", info)
		}
	}
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	pack := createValidPack()
	pack.Name = "Saved"
	if err := manager.SaveConfig("saved", pack); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("Expected saved.json on disk: %v", err)
	}

	loaded, err := manager.LoadConfig("saved")
	if err != nil || loaded.Name != "Saved" {
		t.Errorf("Expected saved pack to load, got %+v, %v", loaded, err)
	}

	bad := createValidPack()
	bad.Images = nil
	if err := manager.SaveConfig("bad", bad); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	if err := manager.SaveConfig("../escape", createValidPack()); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for bad name, got %v", err)
	}
}

func TestManager_SaveConfig_ImagePaths(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	tests := []struct {
		name    string
		image   string
		wantErr bool
	}{
		{"relative", "images/one.png", false},
		{"nested relative", "a/b/../c.png", false},
		{"absolute", "/etc/passwd", true},
		{"parent escape", "../secret.png", true},
		{"nested parent escape", "images/../../secret.png", true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pack := createValidPack()
			pack.Images = []string{"images/two.png", tt.image}
			key := fmt.Sprintf("paths%d", i)

			err := manager.SaveConfig(key, pack)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Expected ErrInvalidConfig for %q, got %v", tt.image, err)
				}
				if _, statErr := os.Stat(filepath.Join(dir, key+".json")); !os.IsNotExist(statErr) {
					t.Errorf("Expected no file written for rejected pack, stat: %v", statErr)
				}
				if _, loadErr := manager.LoadConfig(key); loadErr == nil {
					t.Errorf("Expected rejected pack to stay out of the cache")
				}
				return
			}
			if err != nil {
				t.Fatalf("SaveConfig(%q): %v", tt.image, err)
			}
		})
	}
}

func TestManager_SaveConfig_LeavesCallerPackUntouched(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	pack := &engine.LevelPack{
		Name:   "Sparse",
		Images: []string{"images/one.png"},
	}
	if err := manager.SaveConfig("sparse", pack); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	if pack.Cols != 0 || pack.Rows != 0 || pack.BoardSize != 0 || pack.PieceSlots != 0 {
		t.Errorf("Expected caller pack to keep zero fields, got %+v", pack)
	}

	saved, err := manager.LoadConfig("sparse")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if saved == pack {
		t.Fatal("Expected cache to hold its own copy of the pack")
	}
	if saved.Cols != engine.DefaultCols || saved.Rows != engine.DefaultRows {
		t.Errorf("Expected defaults on saved pack, got %dx%d", saved.Cols, saved.Rows)
	}

	// Later edits by the caller do not leak into the cache
	pack.Images[0] = "images/other.png"
	if saved.Images[0] != "images/one.png" {
		t.Errorf("Expected cached images to be independent, got %v", saved.Images)
	}
}

func TestManager_ReloadConfig(t *testing.T) {
	dir := t.TempDir()
	pack := createValidPack()
	pack.Name = "Changeable"
	writePackFile(t, dir, "changeable", pack)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	loaded, _ := manager.LoadConfig("changeable")
	if loaded.Cols != 3 {
		t.Errorf("Expected initial cols 3, got %d", loaded.Cols)
	}

	pack.Cols = 5
	writePackFile(t, dir, "changeable", pack)

	if err := manager.ReloadConfig("changeable"); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}
	reloaded, _ := manager.LoadConfig("changeable")
	if reloaded.Cols != 5 {
		t.Errorf("Expected reloaded cols 5, got %d", reloaded.Cols)
	}
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writePackFile(t, dir, "classic", createValidPack())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	if _, err := manager.LoadConfig("classic"); err != nil {
		t.Fatal(err)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}
	// Only the default is back in the cache
	if manager.Count() != 1 {
		t.Errorf("Expected 1 cached pack after refresh, got %d", manager.Count())
	}
	if manager.GetDefault() == nil {
		t.Error("Expected default after refresh")
	}
}

func TestManager_LoadLevels(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "images", "one.png"), 30, 20)
	writePackFile(t, dir, "pack", createValidPack())

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	pack, err := manager.LoadConfig("pack")
	if err != nil {
		t.Fatal(err)
	}

	images := manager.LoadLevels(pack)
	if len(images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(images))
	}
	if !images[0].Readable || images[0].Width() != 30 {
		t.Errorf("Expected first image readable 30px wide, got %+v", images[0])
	}
	if images[1].Readable {
		t.Error("Expected missing second image to be unreadable")
	}

	again := manager.LoadLevels(pack)
	if again[0] != images[0] {
		t.Error("Expected decoded image to come from cache")
	}
	if manager.LoadLevels(nil) != nil {
		t.Error("Expected nil for nil pack")
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	names := []string{"config1", "config2", "config3", "config4", "config5"}
	for _, name := range names {
		pack := createValidPack()
		pack.Name = name
		writePackFile(t, dir, name, pack)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if _, err := manager.LoadConfig(names[id%len(names)]); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Unexpected error during concurrent access: %v", err)
	}
	if manager.Count() < 5 {
		t.Errorf("Expected at least 5 configs in cache, got %d", manager.Count())
	}
}
