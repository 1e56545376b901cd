package main

import "snapvault/cmd"

func main() {
	cmd.Execute()
}
