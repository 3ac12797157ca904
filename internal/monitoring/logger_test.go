package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("rr: %s: skipped %d lines", "a.txt", 2)

	if len(got) != 1 || got[0] != "rr: a.txt: skipped 2 lines" {
		t.Fatalf("custom logger captured %q", got)
	}

	// nil installs a no-op; the previous logger must not be called
	SetLogger(nil)
	Logf("muted")
	if len(got) != 1 {
		t.Errorf("no-op logger forwarded a message: %q", got)
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()
	Logf("test message: %s", "value")
}
