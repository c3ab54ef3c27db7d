package tests

import (
	"fmt"
	"sync"

	"github.com/trezcool/gradebook/core"
)

// Logger records log calls for assertions.
type Logger struct {
	mutex   sync.Mutex
	entries []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.entries = append(l.entries, fmt.Sprintf("%s %s", level, msg))
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg) }

// Entries returns the logged "LEVEL msg" lines.
func (l *Logger) Entries() []string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return append([]string(nil), l.entries...)
}

// Count returns the number of entries logged at `level`.
func (l *Logger) Count(level string) int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	n := 0
	for _, e := range l.entries {
		if len(e) > len(level) && e[:len(level)+1] == level+" " {
			n++
		}
	}
	return n
}
