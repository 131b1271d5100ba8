package dbspec

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	dir := filepath.Join("some", "dir")
	for _, tc := range []struct {
		in      string
		want    Spec
		wantErr string // if non-empty, error should contain this
	}{
		{
			in:      "",
			wantErr: "unknown kind",
		},
		{
			in:      "dynamo:dbname",
			wantErr: "unknown kind",
		},
		{
			in:   "mem",
			want: Spec{Kind: "mem"},
		},
		{
			in:      "mem:",
			wantErr: "invalid",
		},
		{
			in: "pebble:" + dir,
			want: Spec{
				Kind:     "pebble",
				Location: dir,
			},
		},
		{
			in: `pebble:C:\WINDOWS\WORKS`,
			want: Spec{
				Kind:     "pebble",
				Location: `C:\WINDOWS\WORKS`,
			},
		},
		{
			in:      "pebble",
			wantErr: "missing directory",
		},
		{
			in:      "pebble:",
			wantErr: "missing directory",
		},
		{
			in: "new:mem",
			want: Spec{
				Kind:   "mem",
				Create: true,
			},
		},
		{
			in: "new:pebble:" + dir,
			want: Spec{
				Kind:     "pebble",
				Location: dir,
				Create:   true,
			},
		},
	} {
		got, err := Parse(tc.in)
		if err != nil {
			if tc.wantErr == "" {
				t.Errorf("%q: %v", tc.in, err)
				continue
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("%q: got %q, should contain %q", tc.in, err, tc.wantErr)
				continue
			}
		} else if g, w := *got, tc.want; g != w {
			t.Errorf("%q:\ngot  %#v\nwant %#v", tc.in, g, w)
		}
	}
}

func TestString(t *testing.T) {
	for _, tc := range []struct {
		in   Spec
		want string
	}{
		{
			in:   Spec{Kind: "unk"},
			want: `&dbspec.Spec{Kind:"unk", Location:"", Create:false}`,
		},
		{
			in:   Spec{Kind: "mem"},
			want: "mem",
		},
		{
			in:   Spec{Kind: "mem", Create: true},
			want: "new:mem",
		},
		{
			in:   Spec{Kind: "pebble", Location: "dir"},
			want: "pebble:dir",
		},
		{
			in:   Spec{Kind: "pebble", Location: "dir", Create: true},
			want: "new:pebble:dir",
		},
	} {
		got := tc.in.String()
		if got != tc.want {
			t.Errorf("%#v: got %q, want %q", tc.in, got, tc.want)
		}
	}
}
