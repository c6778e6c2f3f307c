package main

import "ies4ops/cmd/ies4ops-cli/cmd"

func main() {
	cmd.Execute()
}
