package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/gradebook/core"
)

type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetServerRoot("github.com/trezcool/gradebook")
	rollbar.SetStackTracer(errors.StackTracer)

	l := &RollbarLogger{std: std, debug: conf.Debug}
	l.Enable(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for the queued Rollbar items to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

// expected fmt: msg | error, map[string]interface{}, key-value pairs ("key", value)
func (l RollbarLogger) prepare(msg string, args []interface{}) (items []interface{}, extras map[string]interface{}) {
	extras = make(map[string]interface{})
	items = append(items, msg)
	for i := 0; i < len(args); i++ {
		switch arg := args[i].(type) {
		case error:
			items = append(items, arg)
		case map[string]interface{}:
			for k, v := range arg {
				extras[k] = v
			}
		case string:
			if i+1 < len(args) {
				extras[arg] = args[i+1]
				i++
			} else {
				extras["arg"] = arg
			}
		default:
			extras[fmt.Sprintf("arg%d", i)] = arg
		}
	}
	if len(extras) > 0 {
		items = append(items, extras)
	}
	return items, extras
}

func (l RollbarLogger) print(level, msg string, items []interface{}, extras map[string]interface{}) {
	var b strings.Builder
	b.WriteString(level)
	b.WriteString(" ")
	b.WriteString(msg)

	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, extras[k])
	}
	for _, item := range items {
		if err, ok := item.(error); ok {
			fmt.Fprintf(&b, " error=%q", err.Error())
		}
	}
	l.std.Println(b.String())
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	if !l.debug {
		return
	}
	items, extras := l.prepare(msg, args)
	rollbar.Debug(items...)
	l.print("DEBUG", msg, items, extras)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	items, extras := l.prepare(msg, args)
	rollbar.Info(items...)
	l.print("INFO", msg, items, extras)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	items, extras := l.prepare(msg, args)
	rollbar.Warning(items...)
	l.print("WARN", msg, items, extras)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	items, extras := l.prepare(msg, args)
	rollbar.Error(items...)
	l.print("ERROR", msg, items, extras)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	items, extras := l.prepare(msg, args)
	rollbar.Critical(items...)
	l.print("FATAL", msg, items, extras)
	rollbar.Close()
	l.std.Fatal(msg)
}
