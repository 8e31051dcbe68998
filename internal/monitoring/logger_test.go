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
	Logf("loaded %d records", 3)

	if len(got) != 1 || got[0] != "loaded 3 records" {
		t.Fatalf("custom logger got %v", got)
	}

	// nil installs a no-op; the previous logger must not fire again
	SetLogger(nil)
	Logf("dropped")
	if len(got) != 1 {
		t.Errorf("no-op logger forwarded a message: %v", got)
	}
}

func TestSetVerbose(t *testing.T) {
	originalLogf, originalDebugf := Logf, Debugf
	defer func() {
		Logf = originalLogf
		Debugf = originalDebugf
	}()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})

	SetVerbose(false)
	Debugf("hidden %d", 1)
	if len(got) != 0 {
		t.Fatalf("Debugf logged while quiet: %v", got)
	}

	SetVerbose(true)
	Debugf("shown %d", 2)
	if len(got) != 1 || got[0] != "[debug] shown 2" {
		t.Errorf("Debugf verbose output = %v", got)
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
