// SPDX-License-Identifier: MPL-2.0

// sclkit edits, extracts and versions IEC 61850 SCL documents.
package main

import cmd "github.com/sclkit/sclkit/cmd/sclkit"

func main() {
	cmd.Execute()
}
