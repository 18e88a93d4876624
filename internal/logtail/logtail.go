package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

// Entry is one log line. Lines that are not zap JSON keep only Raw.
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
	Fields  map[string]any
	Raw     string
	Parsed  bool
}

// reserved keys written by the JSON encoder in internal/logging.
var reserved = map[string]bool{
	"ts": true, "level": true, "logger": true, "msg": true,
	"caller": true, "stacktrace": true,
}

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var all []string
		for scanner.Scan() {
			all = append(all, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return all, nil
	}

	ring := make([]string, maxLines)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Tail reads the last maxLines of path and parses each line.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entries = append(entries, Parse(line))
	}
	return entries, nil
}

// Parse decodes a zap JSON line. Anything else comes back unparsed at info
// level so console-encoded logs still display.
func Parse(line string) Entry {
	entry := Entry{Raw: line, Level: zapcore.InfoLevel}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return entry
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
		return entry
	}
	msg, ok := obj["msg"].(string)
	if !ok {
		return entry
	}

	entry.Parsed = true
	entry.Message = msg
	if s, ok := obj["level"].(string); ok {
		if lvl, err := zapcore.ParseLevel(s); err == nil {
			entry.Level = lvl
		}
	}
	if s, ok := obj["logger"].(string); ok {
		entry.Logger = s
	}
	if s, ok := obj["ts"].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			entry.Time = ts
		}
	}
	for k, v := range obj {
		if reserved[k] {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]any)
		}
		entry.Fields[k] = v
	}
	return entry
}

// FieldString renders the extra fields as sorted key=value pairs.
func (e Entry) FieldString() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, e.Fields[k]))
	}
	return strings.Join(parts, " ")
}

// Filter keeps entries at or above min. Unparsed lines are always kept.
func Filter(entries []Entry, min zapcore.Level) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !e.Parsed || e.Level >= min {
			out = append(out, e)
		}
	}
	return out
}
