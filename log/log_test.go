//nolint:funlen // ok for tests
package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_Level(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel)
	l.Debug("hidden")
	l.Info("visible", String("k", "v"))
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)

	l.SetLevel(DebugLevel)
	l.Named("sub").Debug("now visible")
	assert.Contains(t, buf.String(), "now visible")
	assert.Contains(t, buf.String(), `"logger":"sub"`)
}

func TestWithFilter(t *testing.T) {
	tests := []struct {
		name    string
		rules   string
		logger  string
		want    bool
		wantErr bool
	}{
		{name: "match all", rules: "*", logger: "livefeed", want: true},
		{name: "match named debug", rules: "debug:livefeed", logger: "livefeed", want: true},
		{name: "other logger dropped", rules: "debug:livefeed", logger: "openf1", want: false},
		{name: "invalid rule", rules: "foo:bar:baz", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := WithFilter(tt.rules)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			buf := &bytes.Buffer{}
			l := New(buf, DebugLevel, opt)
			l.Named(tt.logger).Debug("msg")
			assert.Equal(t, tt.want, strings.Contains(buf.String(), "msg"))
		})
	}
}

func TestContext(t *testing.T) {
	assert.Same(t, Default(), GetFromContext(context.Background()))
	l := New(&bytes.Buffer{}, InfoLevel)
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
}
