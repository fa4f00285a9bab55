// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/aruidiaz/mapasalud/cmd"
)

var Version = "development"

func main() {
	cmd.Execute(Version)
}
