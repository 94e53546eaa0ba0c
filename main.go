// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/invowk/loadremote/cmd/loadremote"

func main() {
	cmd.Execute()
}
