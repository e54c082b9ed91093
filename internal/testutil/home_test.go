// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"runtime"
	"testing"
)

func homeVar() string {
	if runtime.GOOS == "windows" {
		return "USERPROFILE"
	}
	return "HOME"
}

func TestSetHomeDir(t *testing.T) {
	tmpDir := t.TempDir()
	envVar := homeVar()
	original := os.Getenv(envVar)

	cleanup := SetHomeDir(t, tmpDir)
	if got := os.Getenv(envVar); got != tmpDir {
		t.Errorf("%s = %q, want %q", envVar, got, tmpDir)
	}

	cleanup()
	if got := os.Getenv(envVar); got != original {
		t.Errorf("After cleanup, %s = %q, want %q", envVar, got, original)
	}
}

func TestSetHomeDir_WithTCleanup(t *testing.T) {
	tmpDir := t.TempDir()
	envVar := homeVar()
	original := os.Getenv(envVar)

	t.Run("subtest", func(t *testing.T) {
		t.Cleanup(SetHomeDir(t, tmpDir))

		if got := os.Getenv(envVar); got != tmpDir {
			t.Errorf("%s = %q, want %q", envVar, got, tmpDir)
		}
	})

	if got := os.Getenv(envVar); got != original {
		t.Errorf("After subtest, %s = %q, want %q", envVar, got, original)
	}
}

func TestMustUnsetenv(t *testing.T) {
	const key = "SCLKIT_TESTUTIL_PROBE"
	t.Cleanup(MustSetenv(t, key, "on"))

	restore := MustUnsetenv(t, key)
	if _, ok := os.LookupEnv(key); ok {
		t.Fatalf("%s should be unset", key)
	}
	restore()
	if got := os.Getenv(key); got != "on" {
		t.Errorf("%s = %q after restore, want %q", key, got, "on")
	}
}
