package version

import (
	"testing"
)

func TestInfoString(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{name: "NoRevision", info: Info{Version: "v1.0.0"}, want: "v1.0.0"},
		{name: "ShortRevision", info: Info{Version: "v1.0.0", Revision: "abc123"}, want: "v1.0.0 (abc123)"},
		{
			name: "LongRevisionDirty",
			info: Info{Version: "dev", Revision: "0123456789abcdef0123", Modified: true},
			want: "dev (0123456789ab+dirty)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version == "" {
		t.Error("Version is empty")
	}
}
