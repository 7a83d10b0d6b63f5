// SPDX-License-Identifier: MPL-2.0

package main

import cmd "atomos-cli/cmd/atomos"

func main() {
	cmd.Execute()
}
