package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTransPool(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bg.json"), []byte(`{"Home":"Начало"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	tp := NewTransPool(dir)

	t.Run("missing language falls through", func(t *testing.T) {
		if got := tp.Get("fr").Lang("Home"); got != "Home" {
			t.Errorf("got %q, want %q", got, "Home")
		}
	})

	t.Run("loaded language translates", func(t *testing.T) {
		if got := tp.Get("bg").Lang("Home"); got != "Начало" {
			t.Errorf("got %q, want %q", got, "Начало")
		}
	})

	t.Run("missing key falls through", func(t *testing.T) {
		if got := tp.Get("bg").Lang("Export"); got != "Export" {
			t.Errorf("got %q, want %q", got, "Export")
		}
	})
}
