package main

import "github.com/ssargent/bptreeidx/cmd/bptreectl/cmd"

func main() {
	cmd.Execute()
}
