package main

import "infra-inventory/cmd"

func main() {
	cmd.Execute()
}
