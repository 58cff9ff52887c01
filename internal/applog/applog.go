// Package applog is a minimal append-only event log. Lines are
// timestamped `EVENT key=value` records, one per line, written to a
// single file that rotates once when it grows past 5 MB.
package applog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	logName     = "tabsammlung.log"
	maxFileSize = 5 << 20
	maxValueLen = 200
)

var (
	mu   sync.Mutex
	file *os.File
)

// Init opens the log file for appending. Call once at startup.
// Safe to skip — every log call is a no-op until Init succeeds.
func Init(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, logName)

	if info, err := os.Stat(path); err == nil && info.Size() > maxFileSize {
		os.Rename(path, path+".1")
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}

	mu.Lock()
	file = f
	mu.Unlock()
	return nil
}

// Close flushes and closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
}

// Info logs a structured event line.
//
//	applog.Info("tabs.saved", "groups", 4, "new", 11)
func Info(event string, kv ...any) {
	emit("INFO", event, nil, kv)
}

// Error logs an event with an error.
//
//	applog.Error("store.put", err, "key", "savedTabs")
func Error(event string, err error, kv ...any) {
	emit("ERROR", event, err, kv)
}

func emit(level, event string, err error, kv []any) {
	mu.Lock()
	defer mu.Unlock()
	if file == nil {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteByte(' ')
	b.WriteString(level)
	b.WriteByte(' ')
	b.WriteString(event)

	if err != nil {
		b.WriteString(" err=")
		b.WriteString(quote(err.Error()))
	}
	for i := 0; i+1 < len(kv); i += 2 {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(kv[i]))
		b.WriteByte('=')
		b.WriteString(quote(fmt.Sprint(kv[i+1])))
	}
	b.WriteByte('\n')

	file.WriteString(b.String())
}

func quote(s string) string {
	if len(s) > maxValueLen {
		s = s[:maxValueLen] + "…"
	}
	if strings.ContainsAny(s, " \t\n\"") {
		return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
	}
	return s
}
