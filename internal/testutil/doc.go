// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that fail fast on setup
// errors.
//
// Environment helpers (MustSetenv, MustUnsetenv, SetHomeDir) return cleanup
// functions suitable for t.Cleanup. FakeClock gives history tests a fixed,
// manually advanced time. Document fixtures live in the scltest subpackage.
package testutil
