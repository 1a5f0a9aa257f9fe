package engine

import "testing"

func TestMapStatus(t *testing.T) {
	cases := []struct {
		in   string
		want Status
	}{
		{"completed", StatusDone},
		{"failed", StatusError},
		{"cancelled", StatusError},
		{"pending", StatusGenerating},
		{"configuring", StatusGenerating},
		{"queued", StatusGenerating},
		{"running", StatusGenerating},
		{"COMPLETED", StatusDone},
		{" Running ", StatusGenerating},
		{"", StatusIdle},
		{"weird", StatusIdle},
	}
	for _, c := range cases {
		if got := MapStatus(c.in); got != c.want {
			t.Errorf("MapStatus(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
