package logtail

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/five82/logdeck/internal/logline"
)

var parserPool fastjson.ParserPool

// Parse turns one line of a log file into a console line. JSON objects with
// at least a message, file or function field become structured lines; any
// other text is kept verbatim.
func Parse(text string) fmt.Stringer {
	return ParseAt(text, time.Now())
}

// ParseAt is Parse with an explicit fallback time for records that carry no
// timestamp.
func ParseAt(text string, now time.Time) fmt.Stringer {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return logline.NewRaw(text)
	}

	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.Parse(trimmed)
	if err != nil || v.Type() != fastjson.TypeObject {
		return logline.NewRaw(text)
	}

	msg := firstString(v, "msg", "message")
	file := firstString(v, "file", "caller", "source")
	fn := firstString(v, "func", "function")
	if msg == "" && file == "" && fn == "" {
		return logline.NewRaw(text)
	}

	line := v.GetInt("line")
	if line == 0 {
		file, line = splitCaller(file)
	}
	if level := firstString(v, "level", "lvl"); level != "" {
		msg = strings.ToUpper(level) + " " + msg
	}

	site := logline.CallSite{File: file, Line: line, Function: fn}
	thread := firstString(v, "thread", "goroutine")
	return logline.New(site, thread, msg, timestamp(v, now))
}

func firstString(v *fastjson.Value, keys ...string) string {
	for _, key := range keys {
		field := v.Get(key)
		if field == nil {
			continue
		}
		switch field.Type() {
		case fastjson.TypeString:
			if s := strings.TrimSpace(string(field.GetStringBytes())); s != "" {
				return s
			}
		case fastjson.TypeNumber:
			return field.String()
		}
	}
	return ""
}

// splitCaller separates "path/file.go:42" into its file and line.
func splitCaller(caller string) (string, int) {
	idx := strings.LastIndex(caller, ":")
	if idx <= 0 {
		return caller, 0
	}
	line, err := strconv.Atoi(caller[idx+1:])
	if err != nil {
		return caller, 0
	}
	return caller[:idx], line
}

func timestamp(v *fastjson.Value, now time.Time) time.Time {
	for _, key := range []string{"time", "ts", "timestamp"} {
		field := v.Get(key)
		if field == nil {
			continue
		}
		switch field.Type() {
		case fastjson.TypeString:
			raw := string(field.GetStringBytes())
			if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
				return t
			}
			if t, err := time.ParseInLocation(logline.DefaultLayout, raw, time.Local); err == nil {
				return t
			}
		case fastjson.TypeNumber:
			secs := field.GetFloat64()
			whole := int64(secs)
			return time.Unix(whole, int64((secs-float64(whole))*float64(time.Second)))
		}
	}
	return now
}
