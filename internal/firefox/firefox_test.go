package firefox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lotas/tabsammlung/internal/types"
)

const sessionJSON = `{
	"windows": [
		{"tabs": [
			{"entries": [
				{"url": "https://old.com/history", "title": "Old"},
				{"url": "https://a.com/current", "title": "Current"}
			], "index": 2},
			{"entries": [], "index": 1},
			{"entries": [{"url": "https://b.com/x", "title": "B"}], "index": 99}
		]},
		{"tabs": [
			{"entries": [{"url": "https://c.com/y", "title": "C"}], "index": 1}
		]}
	]
}`

func TestMozLz4RoundTrip(t *testing.T) {
	payload := []byte(sessionJSON)
	packed, err := CompressMozLz4(payload)
	if err != nil {
		t.Fatalf("CompressMozLz4: %v", err)
	}
	unpacked, err := DecompressMozLz4(packed)
	if err != nil {
		t.Fatalf("DecompressMozLz4: %v", err)
	}
	if string(unpacked) != sessionJSON {
		t.Error("round trip corrupted payload")
	}
}

func TestDecompressMozLz4Rejects(t *testing.T) {
	if _, err := DecompressMozLz4([]byte("short")); err == nil {
		t.Error("short input should fail")
	}
	if _, err := DecompressMozLz4([]byte("wrongmagic0123456789")); err == nil {
		t.Error("bad magic should fail")
	}
}

func TestParseSessionTabs(t *testing.T) {
	tabs, err := ParseSessionTabs([]byte(sessionJSON))
	if err != nil {
		t.Fatalf("ParseSessionTabs: %v", err)
	}
	if len(tabs) != 3 {
		t.Fatalf("expected 3 tabs, got %d", len(tabs))
	}
	// index points at the current entry, not the first.
	if tabs[0].URL != "https://a.com/current" || tabs[0].Title != "Current" {
		t.Errorf("tab 0 = %+v", tabs[0])
	}
	// out-of-range index falls back to the last entry.
	if tabs[1].URL != "https://b.com/x" {
		t.Errorf("tab 1 = %+v", tabs[1])
	}
	if tabs[2].URL != "https://c.com/y" {
		t.Errorf("tab 2 = %+v", tabs[2])
	}
}

func TestReadSessionTabs(t *testing.T) {
	profileDir := t.TempDir()
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatal(err)
	}
	packed, err := CompressMozLz4([]byte(sessionJSON))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, "recovery.jsonlz4"), packed, 0o644); err != nil {
		t.Fatal(err)
	}

	tabs, err := ReadSessionTabs(profileDir)
	if err != nil {
		t.Fatalf("ReadSessionTabs: %v", err)
	}
	if len(tabs) != 3 {
		t.Errorf("expected 3 tabs, got %d", len(tabs))
	}
}

func TestReadSessionTabsMissing(t *testing.T) {
	if _, err := ReadSessionTabs(t.TempDir()); err == nil {
		t.Error("missing session files should fail")
	}
}

func TestDiscoverProfiles(t *testing.T) {
	dir := t.TempDir()

	// Two profiles; only "work" has a session file.
	for _, p := range []string{"abc.default", "def.work"} {
		if err := os.MkdirAll(filepath.Join(dir, p), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	backupDir := filepath.Join(dir, "def.work", "sessionstore-backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, "previous.jsonlz4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ini := `[General]
StartWithLastProfile=1

[Profile0]
Name=default
IsRelative=1
Path=abc.default
Default=1

[Profile1]
Name=work
IsRelative=1
Path=def.work
`
	if err := os.WriteFile(filepath.Join(dir, "profiles.ini"), []byte(ini), 0o644); err != nil {
		t.Fatal(err)
	}

	profiles, err := DiscoverProfiles(dir)
	if err != nil {
		t.Fatalf("DiscoverProfiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "work" {
		t.Fatalf("profiles = %+v, want only work", profiles)
	}
	if profiles[0].Path != filepath.Join(dir, "def.work") {
		t.Errorf("relative path not resolved: %q", profiles[0].Path)
	}
}

func TestPickProfile(t *testing.T) {
	profiles := []types.Profile{
		{Name: "default", IsDefault: true},
		{Name: "work"},
	}

	p, err := PickProfile(profiles, "work")
	if err != nil || p.Name != "work" {
		t.Errorf("by name: %+v, %v", p, err)
	}

	p, err = PickProfile(profiles, "")
	if err != nil || p.Name != "default" {
		t.Errorf("default: %+v, %v", p, err)
	}

	if _, err := PickProfile(profiles, "nope"); err == nil {
		t.Error("unknown name should fail")
	}

	noDefault := []types.Profile{{Name: "a"}, {Name: "b"}}
	if _, err := PickProfile(noDefault, ""); err == nil {
		t.Error("ambiguous pick should fail")
	}

	only := []types.Profile{{Name: "solo"}}
	if p, err := PickProfile(only, ""); err != nil || p.Name != "solo" {
		t.Errorf("single profile: %+v, %v", p, err)
	}
}
