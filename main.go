package main

import "github.com/tanq16/fetchr/cmd"

func main() {
	cmd.Execute()
}
