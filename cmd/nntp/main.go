// SPDX-License-Identifier: GPL-3.0-or-later

// Command nntp is a Usenet client.
package main

import (
	"os"

	"github.com/bassosimone/nntp/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
