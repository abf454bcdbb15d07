package main

import (
	"testing"
	"testing/fstest"

	"github.com/jmerrifield20/anchorledger/migrations"
)

func TestVersionFromFile(t *testing.T) {
	tests := []struct {
		name    string
		want    int64
		wantErr bool
	}{
		{"001_init.up.sql", 1, false},
		{"012_add_index.up.sql", 12, false},
		{"init.sql", 0, true},
		{"abc_init.up.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := versionFromFile(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPendingFiles_upOnlyInVersionOrder(t *testing.T) {
	src := fstest.MapFS{
		"10_later.up.sql":   {Data: []byte("SELECT 1")},
		"2_second.up.sql":   {Data: []byte("SELECT 1")},
		"2_second.down.sql": {Data: []byte("SELECT 1")},
		"README.md":         {Data: []byte("x")},
	}
	got, err := pendingFiles(src)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2_second.up.sql", "10_later.up.sql"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := pendingFiles(migrations.FS)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 || files[0] != "001_init.up.sql" {
		t.Errorf("embedded migrations: %v", files)
	}
}
