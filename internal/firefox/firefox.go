// Package firefox enumerates open tabs from an offline Firefox profile.
// It stands in for the live tab API: the session recovery file is read,
// decompressed from Mozilla's mozlz4 framing, and flattened to plain
// url/title pairs for the organizer.
package firefox

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/lotas/tabsammlung/internal/types"
)

// mozlz4 framing: 8-byte magic, 4-byte LE uncompressed size, lz4 block.
var mozLz4Magic = []byte("mozLz40\x00")

// DecompressMozLz4 unpacks a mozlz4-framed payload.
func DecompressMozLz4(data []byte) ([]byte, error) {
	const headerSize = 12

	if len(data) < headerSize {
		return nil, fmt.Errorf("mozlz4: data too short (%d bytes)", len(data))
	}
	for i, b := range mozLz4Magic {
		if data[i] != b {
			return nil, fmt.Errorf("mozlz4: invalid header magic")
		}
	}

	size := binary.LittleEndian.Uint32(data[8:12])
	dst := make([]byte, size)
	n, err := lz4.UncompressBlock(data[headerSize:], dst)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: decompress failed: %w", err)
	}
	return dst[:n], nil
}

// CompressMozLz4 packs data in mozlz4 framing. Used by tests to build
// session fixtures.
func CompressMozLz4(data []byte) ([]byte, error) {
	buf := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, buf, nil)
	if err != nil {
		return nil, fmt.Errorf("mozlz4: compress failed: %w", err)
	}
	out := make([]byte, 0, 12+n)
	out = append(out, mozLz4Magic...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, buf[:n]...), nil
}

// Session JSON, reduced to the fields the import needs.
type sessionEntry struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

type sessionTab struct {
	Entries []sessionEntry `json:"entries"`
	Index   int            `json:"index"` // 1-based pointer at the current entry
}

type sessionWindow struct {
	Tabs []sessionTab `json:"tabs"`
}

type session struct {
	Windows []sessionWindow `json:"windows"`
}

// ParseSessionTabs flattens decompressed session JSON into the current
// url/title of every tab across all windows. Tabs with no history
// entries are skipped.
func ParseSessionTabs(data []byte) ([]types.Tab, error) {
	var s session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session JSON: %w", err)
	}

	var tabs []types.Tab
	for _, w := range s.Windows {
		for _, t := range w.Tabs {
			if len(t.Entries) == 0 {
				continue
			}
			i := t.Index - 1
			if i < 0 || i >= len(t.Entries) {
				i = len(t.Entries) - 1
			}
			tabs = append(tabs, types.Tab{URL: t.Entries[i].URL, Title: t.Entries[i].Title})
		}
	}
	return tabs, nil
}

// ReadSessionTabs loads the profile's session recovery file —
// recovery.jsonlz4 (live session) falling back to previous.jsonlz4 —
// and returns its tabs.
func ReadSessionTabs(profileDir string) ([]types.Tab, error) {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")

	var lastErr error
	for _, name := range []string{"recovery.jsonlz4", "previous.jsonlz4"} {
		raw, err := os.ReadFile(filepath.Join(backupDir, name))
		if err != nil {
			lastErr = err
			continue
		}
		data, err := DecompressMozLz4(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return ParseSessionTabs(data)
	}
	return nil, fmt.Errorf("no session file in %s: %w", backupDir, lastErr)
}

// ProfilesDir returns the platform Firefox configuration directory.
func ProfilesDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "linux":
		return filepath.Join(home, ".mozilla", "firefox")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Firefox")
	default:
		return ""
	}
}

// DiscoverProfiles parses profiles.ini under dir and returns profiles
// that have a readable session file.
func DiscoverProfiles(dir string) ([]types.Profile, error) {
	f, err := os.Open(filepath.Join(dir, "profiles.ini"))
	if err != nil {
		return nil, fmt.Errorf("open profiles.ini: %w", err)
	}
	defer f.Close()

	var all []types.Profile
	var cur *types.Profile
	flush := func() {
		if cur != nil {
			all = append(all, *cur)
			cur = nil
		}
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			flush()
			if strings.HasPrefix(line[1:len(line)-1], "Profile") {
				cur = &types.Profile{}
			}
			continue
		}
		if cur == nil {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "Name":
			cur.Name = value
		case "Path":
			cur.Path = value
		case "IsRelative":
			cur.IsRelative = value == "1"
		case "Default":
			cur.IsDefault = value == "1"
		}
	}
	flush()
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan profiles.ini: %w", err)
	}

	var usable []types.Profile
	for _, p := range all {
		if p.IsRelative {
			p.Path = filepath.Join(dir, p.Path)
		}
		if hasSessionFile(p.Path) {
			usable = append(usable, p)
		}
	}
	return usable, nil
}

func hasSessionFile(profileDir string) bool {
	backupDir := filepath.Join(profileDir, "sessionstore-backups")
	for _, name := range []string{"recovery.jsonlz4", "previous.jsonlz4"} {
		if _, err := os.Stat(filepath.Join(backupDir, name)); err == nil {
			return true
		}
	}
	return false
}

// PickProfile selects the named profile, or the default, or the only
// one.
func PickProfile(profiles []types.Profile, name string) (types.Profile, error) {
	if name != "" {
		for _, p := range profiles {
			if p.Name == name {
				return p, nil
			}
		}
		return types.Profile{}, fmt.Errorf("profile %q not found", name)
	}
	for _, p := range profiles {
		if p.IsDefault {
			return p, nil
		}
	}
	if len(profiles) == 1 {
		return profiles[0], nil
	}
	return types.Profile{}, fmt.Errorf("multiple profiles, none default; pass a profile name")
}
