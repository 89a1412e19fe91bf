package config

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	ansiRed         = 31
	ansiGreen       = 32
	ansiYellow      = 33
	ansiBlue        = 36
	ansiGray        = 37
	ansiLightGreen  = 92
	ansiLightYellow = 93
	ansiCyan        = 96
)

// WvFormatter renders colorized logfmt-style lines with a source
// reference to the logging call site.
type WvFormatter struct{}

func (f *WvFormatter) Format(entry *log.Entry) ([]byte, error) {
	var b strings.Builder

	pair := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(colored(ansiCyan, key))
		b.WriteByte('=')
		b.WriteString(value)
	}

	pair("level", colored(levelColor(entry.Level), strings.ToUpper(entry.Level.String())[:4]))
	pair("ts", colored(ansiLightYellow, entry.Time.Format("2006-01-02 15:04:05.000")))

	if _, file, line, ok := runtime.Caller(6); ok {
		pair("source", colored(ansiLightYellow, fmt.Sprintf("%s:%d", file, line)))
	}

	for key, value := range entry.Data {
		raw, err := json.Marshal(value)
		if err != nil || len(raw) == 0 {
			continue
		}
		s := string(raw)
		color := ansiCyan
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			color = ansiGreen
		} else if strings.HasPrefix(s, `"`) {
			color = ansiLightYellow
		}
		pair(key, colored(color, s))
	}

	pair("msg", colored(ansiLightGreen, strconv.Quote(entry.Message)))

	out := strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(b.String())
	return []byte(out + "\n"), nil
}

func colored(color int, s string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, s)
}

func levelColor(level log.Level) int {
	switch level {
	case log.TraceLevel, log.DebugLevel:
		return ansiGray
	case log.WarnLevel:
		return ansiYellow
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		return ansiRed
	default:
		return ansiBlue
	}
}
