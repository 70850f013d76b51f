package main

import "accmeta/cmd"

func main() {
	cmd.Execute()
}
