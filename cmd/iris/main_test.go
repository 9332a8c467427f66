package main

import (
	"bytes"
	"encoding/json"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"testing"
)

// setHome points configuration at a fresh home directory owned by the test
// user and returns its path.
func setHome(t *testing.T) string {
	t.Helper()
	u, err := user.Current()
	if err != nil || u.Username == "" {
		t.Skipf("no current user: %v", err)
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("IRIS_USER", u.Username)
	t.Setenv("IRIS_HOSTNAME", "test.host")
	t.Setenv("IRIS_GLOB", filepath.Join(home, "*.messages"))
	t.Setenv("IRIS_LOG_LEVEL", "error")
	for _, k := range []string{"IRIS_MESSAGE_FILE", "IRIS_READ_FILE", "IRIS_HISTORY_FILE", "IRIS_EDITOR", "IRIS_WIDTH", "IRIS_LOG_SINK", "VISUAL", "EDITOR"} {
		t.Setenv(k, "")
	}
	return home
}

func runIris(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		code, out, _ := runIris(t, "", flag)
		if code != exitOK || out != "Iris v"+Version+"\n" {
			t.Errorf("%s: code %d, output %q", flag, code, out)
		}
	}
}

func TestUsageErrors(t *testing.T) {
	setHome(t)
	for _, args := range [][]string{{"--bogus"}, {"extra"}, {"mount"}} {
		code, _, stderr := runIris(t, "", args...)
		if code != exitUsage {
			t.Errorf("%v: code %d, want %d (%s)", args, code, exitUsage, stderr)
		}
	}
}

func TestInteractiveSession(t *testing.T) {
	home := setHome(t)

	code, out, stderr := runIris(t, "y\nc\nhello from the test\n.\nq\n")
	if code != exitOK {
		t.Fatalf("code %d: %s\n%s", code, stderr, out)
	}
	for _, want := range []string{"Would you like to create it?", "Welcome to Iris v" + Version, "Topic saved!"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	for _, name := range []string{".iris.messages", ".iris.read", ".iris.config.yaml", ".iris.history"} {
		if _, err := os.Stat(filepath.Join(home, name)); err != nil {
			t.Errorf("%s not created: %v", name, err)
		}
	}

	code, out, _ = runIris(t, "", "--stats")
	if code != exitOK {
		t.Fatalf("--stats code %d", code)
	}
	if !strings.Contains(out, "topics:          1") {
		t.Errorf("stats:\n%s", out)
	}

	code, out, _ = runIris(t, "", "--dump")
	if code != exitOK {
		t.Fatalf("--dump code %d", code)
	}
	var dump []struct {
		Hash string `json:"hash"`
		CID  string `json:"cid"`
		Data struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(out), &dump); err != nil {
		t.Fatalf("dump is not JSON: %v\n%s", err, out)
	}
	if len(dump) != 1 || dump[0].Data.Message != "hello from the test" || dump[0].CID == "" {
		t.Errorf("dump = %+v", dump)
	}
}

func TestNonInteractiveDoesNotCreate(t *testing.T) {
	home := setHome(t)
	code, out, stderr := runIris(t, "", "--stats")
	if code != exitOK {
		t.Fatalf("code %d", code)
	}
	if !strings.Contains(stderr, "Run iris interactively to create it.") {
		t.Errorf("stderr:\n%s", stderr)
	}
	if strings.Contains(out, "message file") {
		t.Errorf("notice written to stdout:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(home, ".iris.messages")); !os.IsNotExist(err) {
		t.Errorf("message file should not exist: %v", err)
	}
}

func TestCorruptOwnFile(t *testing.T) {
	home := setHome(t)
	if err := os.WriteFile(filepath.Join(home, ".iris.messages"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runIris(t, "", "--stats")
	if code != exitError {
		t.Errorf("code %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, ".iris.messages") {
		t.Errorf("stderr should name the file: %s", stderr)
	}
}

func TestPermissionWarning(t *testing.T) {
	home := setHome(t)
	path := filepath.Join(home, ".iris.messages")
	if err := os.WriteFile(path, []byte("[]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(path, 0666); err != nil {
		t.Fatal(err)
	}
	_, out, stderr := runIris(t, "", "--stats")
	if !strings.Contains(stderr, "Your message file has incorrect permissions!") || !strings.Contains(stderr, "chmod 644 "+path) {
		t.Errorf("no warning:\n%s", stderr)
	}
	if strings.Contains(out, "incorrect permissions") {
		t.Errorf("warning written to stdout:\n%s", out)
	}
}

func TestDumpIsPureJSON(t *testing.T) {
	home := setHome(t)
	// No message file and a loose read file: both produce notices.
	read := filepath.Join(home, ".iris.read")
	if err := os.WriteFile(read, []byte("[]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(read, 0666); err != nil {
		t.Fatal(err)
	}

	code, out, stderr := runIris(t, "", "--dump")
	if code != exitOK {
		t.Fatalf("code %d: %s", code, stderr)
	}
	var dump []json.RawMessage
	if err := json.Unmarshal([]byte(out), &dump); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%q", err, out)
	}
	if len(dump) != 0 {
		t.Errorf("dump has %d records, want 0", len(dump))
	}
	for _, want := range []string{"You have no message file", "Your read file has incorrect permissions!"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}
