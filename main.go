package main

import "bigfiles/cmd"

func main() {
	cmd.Execute()
}
