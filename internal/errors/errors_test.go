package errors

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestContractError(t *testing.T) {
	underlying := errors.New("backup of 3 exceeds read length 2")
	err := NewContractError("Input.Backup", underlying).WithOffset(17)

	if err.Type != ErrorTypeContract {
		t.Errorf("Expected Type to be ErrorTypeContract, got %v", err.Type)
	}

	if err.Offset != 17 {
		t.Errorf("Expected Offset to be 17, got %d", err.Offset)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "contract violation in Input.Backup at offset 17: backup of 3 exceeds read length 2"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestContractErrorWithoutOffset(t *testing.T) {
	err := NewContractError("Updater.ApplyEdit", errors.New("negative offset"))

	expectedMsg := "contract violation in Updater.ApplyEdit: negative offset"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	var target *ContractError
	if !errors.As(error(err), &target) {
		t.Errorf("Expected errors.As to find a *ContractError")
	}
}

func TestConsistencyError(t *testing.T) {
	err := NewConsistencyError(4, "lookahead", "1", "2").
		WithOperation(`insert "x" at 3`).
		WithDumps(`"ab\nx"`, "incremental dump", "batch dump")

	if err.Type != ErrorTypeConsistency {
		t.Errorf("Expected Type to be ErrorTypeConsistency, got %v", err.Type)
	}

	msg := err.Error()
	for _, want := range []string{
		"token 4: lookahead mismatch: batch=1 incremental=2",
		`after insert "x" at 3`,
		`text: "ab\nx"`,
		"incremental:\nincremental dump",
		"batch:\nbatch dump",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("Expected message to contain %q, got %q", want, msg)
		}
	}
}

func TestLanguageError(t *testing.T) {
	err := NewLanguageError("dmeo", []string{"demo"})
	expectedMsg := `unknown language "dmeo" (did you mean demo?)`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	bare := NewLanguageError("cobol", nil)
	if bare.Error() != `unknown language "cobol"` {
		t.Errorf("Unexpected message %q", bare.Error())
	}
}

func TestFileError(t *testing.T) {
	underlying := &fs.PathError{Op: "open", Path: "/path/to/file", Err: fs.ErrPermission}
	err := NewFileError("read", "/path/to/file", underlying)

	if err.Type != ErrorTypePermission {
		t.Errorf("Expected Type to be ErrorTypePermission, got %v", err.Type)
	}

	if err.Path != "/path/to/file" {
		t.Errorf("Expected Path to be '/path/to/file', got %s", err.Path)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := "file read failed for /path/to/file: open /path/to/file: permission denied"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestFileErrorWithNotFound(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing"))
	err := NewFileError("stat", "/missing/file", statErr)

	if err.Type != ErrorTypeFileNotFound {
		t.Errorf("Expected Type to be ErrorTypeFileNotFound, got %v", err.Type)
	}
}

func TestFileErrorFromUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	path := filepath.Join(t.TempDir(), "locked.txt")
	if err := os.WriteFile(path, []byte("x"), 0o000); err != nil {
		t.Fatal(err)
	}
	_, readErr := os.ReadFile(path)
	err := NewFileError("read", path, readErr)

	if err.Type != ErrorTypePermission {
		t.Errorf("Expected Type to be ErrorTypePermission, got %v", err.Type)
	}
}

func TestFileErrorOther(t *testing.T) {
	err := NewFileError("read", "/dev/x", errors.New("input/output error"))

	if err.Type != ErrorTypeFileIO {
		t.Errorf("Expected Type to be ErrorTypeFileIO, got %v", err.Type)
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("ratios must not all be zero")
	err := NewConfigError("random", "", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	expectedMsg := `config error for field random (value ): ratios must not all be zero`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	err3 := errors.New("error 3")

	multiErr := NewMultiError([]error{err1, err2, err3})
	if len(multiErr.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(multiErr.Errors))
	}
	if !strings.HasPrefix(multiErr.Error(), "3 errors: ") {
		t.Errorf("Expected message to start with '3 errors: ', got %q", multiErr.Error())
	}

	singleErr := NewMultiError([]error{err1})
	if singleErr.Error() != "error 1" {
		t.Errorf("Expected 'error 1', got %q", singleErr.Error())
	}

	emptyErr := NewMultiError([]error{nil})
	if emptyErr.Error() != "no errors" {
		t.Errorf("Expected 'no errors', got %q", emptyErr.Error())
	}
	if emptyErr.ErrorOrNil() != nil {
		t.Errorf("Expected ErrorOrNil to return nil for an empty multi-error")
	}

	if !errors.Is(multiErr, err2) {
		t.Errorf("Expected errors.Is to find err2 through Unwrap() []error")
	}
}

func TestTimestamp(t *testing.T) {
	err := NewContractError("test", errors.New("test"))
	if err.Timestamp.IsZero() {
		t.Errorf("Expected non-zero timestamp")
	}

	now := time.Now()
	if err.Timestamp.After(now) || now.Sub(err.Timestamp) > time.Second {
		t.Errorf("Timestamp seems incorrect: %v", err.Timestamp)
	}
}

func BenchmarkContractError(b *testing.B) {
	underlying := errors.New("underlying error")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		err := NewContractError("Input.CreateToken", underlying).WithOffset(i)
		_ = err.Error()
	}
}
