package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/NestCut/internal/model"
)

func TestDefaultInventoryPath(t *testing.T) {
	path, err := DefaultInventoryPath()
	if err != nil {
		t.Skipf("no user config directory: %v", err)
	}
	if filepath.Base(path) != "inventory.json" {
		t.Errorf("expected filename inventory.json, got %s", filepath.Base(path))
	}
	if dir := filepath.Base(filepath.Dir(path)); dir != "nestcut" {
		t.Errorf("expected parent dir nestcut, got %s", dir)
	}
}

func TestSaveAndLoadInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "inventory.json")

	inv := model.Inventory{
		Tools:  []model.ToolProfile{model.NewToolProfile("Test Tool", 4.0, 1200, 400, 16000, 5.0, 15.0, 5.0)},
		Sheets: []model.SheetPreset{model.NewSheetPreset("Test Sheet", 1000, 500, "Test Material", 25)},
	}
	if err := SaveInventory(path, inv); err != nil {
		t.Fatalf("SaveInventory failed: %v", err)
	}

	loaded, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(loaded.Tools) != 1 || loaded.Tools[0].Name != "Test Tool" || loaded.Tools[0].ToolDiameter != 4.0 {
		t.Errorf("unexpected tools: %+v", loaded.Tools)
	}
	if len(loaded.Sheets) != 1 || loaded.Sheets[0].Width != 1000 || loaded.Sheets[0].PricePerSheet != 25 {
		t.Errorf("unexpected sheets: %+v", loaded.Sheets)
	}
}

func TestLoadInventoryMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")

	inv, err := LoadInventory(path)
	if err != nil {
		t.Fatalf("LoadInventory failed: %v", err)
	}
	if len(inv.Tools) == 0 || len(inv.Sheets) == 0 {
		t.Error("expected the default inventory")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("loading must not create the file")
	}
}

func TestLoadInventoryInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.json")
	if err := os.WriteFile(path, []byte("{tools"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadInventory(path); err == nil {
		t.Error("expected an error for invalid JSON")
	}
}

func TestImportInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.json")
	shared := model.Inventory{
		Tools:  []model.ToolProfile{model.NewToolProfile("O-Flute 4mm", 4, 1200, 400, 18000, 5, 6, 2)},
		Sheets: []model.SheetPreset{model.NewSheetPreset("MDF 2440x1220", 2440, 1220, "MDF", 0)},
	}
	if err := SaveInventory(path, shared); err != nil {
		t.Fatal(err)
	}

	existing := model.DefaultInventory()
	tools, sheets := len(existing.Tools), len(existing.Sheets)
	merged, added, err := ImportInventory(path, existing)
	if err != nil {
		t.Fatalf("ImportInventory failed: %v", err)
	}
	if added != 1 {
		t.Errorf("expected 1 new entry, got %d", added)
	}
	if len(merged.Tools) != tools+1 {
		t.Errorf("expected %d tools, got %d", tools+1, len(merged.Tools))
	}
	if len(merged.Sheets) != sheets {
		t.Errorf("existing sheet name should be skipped, got %d sheets", len(merged.Sheets))
	}

	if _, _, err := ImportInventory(filepath.Join(t.TempDir(), "missing.json"), existing); err == nil {
		t.Error("expected an error for a missing file")
	}
}
