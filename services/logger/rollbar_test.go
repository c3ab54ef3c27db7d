package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/gradebook/core"
)

func newTestLogger(debug bool) (*RollbarLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	conf := &core.Config{Env: "TEST", TestMode: true, Debug: debug}
	return NewRollbarLogger(log.New(&buf, "", 0), conf), &buf
}

func TestRollbarLogger_Warn(t *testing.T) {
	l, buf := newTestLogger(false)
	l.Warn("falling back to file", "path", "data/students.json", errors.New("connection refused"))

	assert.Equal(t, "WARN falling back to file path=data/students.json error=\"connection refused\"\n", buf.String())
}

func TestRollbarLogger_Debug(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		want  string
	}{
		{name: "suppressed", debug: false, want: ""},
		{name: "printed", debug: true, want: "DEBUG goose: OK 00001_create_students.sql count=1\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, buf := newTestLogger(tc.debug)
			l.Debug("goose: OK 00001_create_students.sql", map[string]interface{}{"count": 1})
			assert.Equal(t, tc.want, buf.String())
		})
	}
}
