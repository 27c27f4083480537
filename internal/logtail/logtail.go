package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns the whole file. A missing file yields no
// lines and no error.
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
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
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
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one structured log line.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Message string
	Fields  []Field
	Raw     string
}

// Field is an extra key/value attached to an entry.
type Field struct {
	Key   string
	Value string
}

var reservedKeys = map[string]struct{}{
	"ts": {}, "level": {}, "logger": {}, "msg": {}, "caller": {}, "stacktrace": {},
}

// Parse decodes a JSON log line. Lines that are not JSON objects come back
// with only Raw and Message set.
func Parse(line string) Entry {
	entry := Entry{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") || !gjson.Valid(trimmed) {
		entry.Message = line
		return entry
	}

	res := gjson.Parse(trimmed)
	entry.Level = strings.ToUpper(res.Get("level").String())
	entry.Logger = res.Get("logger").String()
	entry.Message = res.Get("msg").String()
	if ts := res.Get("ts"); ts.Exists() {
		entry.Time = parseTimestamp(ts)
	}

	res.ForEach(func(k, v gjson.Result) bool {
		if _, skip := reservedKeys[k.String()]; skip {
			return true
		}
		entry.Fields = append(entry.Fields, Field{Key: k.String(), Value: v.String()})
		return true
	})
	sort.SliceStable(entry.Fields, func(i, j int) bool { return entry.Fields[i].Key < entry.Fields[j].Key })
	return entry
}

func parseTimestamp(v gjson.Result) time.Time {
	if v.Type == gjson.Number {
		f := v.Float()
		sec := int64(f)
		return time.Unix(sec, int64((f-float64(sec))*1e9))
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700"} {
		if t, err := time.Parse(layout, v.String()); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Format renders an entry as a single human readable line:
//
//	15:04:05 INFO  httpclient  request  method=GET status=200
func Format(e Entry) string {
	if e.Level == "" && e.Time.IsZero() {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s", e.Level)
	if e.Logger != "" {
		b.WriteByte(' ')
		b.WriteString(strings.TrimPrefix(e.Logger, "harmonic."))
	}
	if e.Message != "" {
		b.WriteString("  ")
		b.WriteString(e.Message)
	}
	for _, f := range e.Fields {
		b.WriteString("  ")
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(f.Value)
	}
	return b.String()
}
