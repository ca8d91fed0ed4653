package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	colorRed         = 31
	colorGreen       = 32
	colorYellow      = 33
	colorBlue        = 36
	colorGray        = 37
	colorLightGreen  = 92
	colorLightYellow = 93
	colorCyan        = 96
)

// NbFormatter renders entries as coloured key=value pairs with stable field order.
type NbFormatter struct {
	DisableColors bool
}

func (f *NbFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	b.WriteString(f.pair("level", f.paint(levelColor(entry.Level), level)))
	b.WriteString(" ")
	b.WriteString(f.pair("ts", f.paint(colorLightYellow, entry.Time.Format("2006-01-02 15:04:05.000"))))

	if entry.HasCaller() {
		b.WriteString(" ")
		b.WriteString(f.pair("source", f.paint(colorLightYellow, fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line))))
	}

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s := formatValue(entry.Data[k])
		if s == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(f.pair(k, f.paint(valueColor(s), s)))
	}

	b.WriteString(" ")
	b.WriteString(f.pair("msg", f.paint(colorLightGreen, strconv.Quote(entry.Message))))

	output := strings.ReplaceAll(b.String(), "\r", "\\r")
	output = strings.ReplaceAll(output, "\n", "\\n") + "\n"
	return []byte(output), nil
}

func (f *NbFormatter) pair(key, value string) string {
	return f.paint(colorCyan, key) + "=" + value
}

func (f *NbFormatter) paint(color int, s string) string {
	if f.DisableColors {
		return s
	}
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}

func formatValue(val any) string {
	if err, ok := val.(error); ok {
		return strconv.Quote(err.Error())
	}
	m, err := json.Marshal(val)
	if err != nil {
		return ""
	}
	return string(m)
}

func levelColor(level log.Level) int {
	switch level {
	case log.DebugLevel, log.TraceLevel:
		return colorGray
	case log.WarnLevel:
		return colorYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return colorRed
	default:
		return colorBlue
	}
}

func valueColor(s string) int {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return colorGreen
	}
	if strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"") {
		return colorLightYellow
	}
	return colorCyan
}
