package main

import "github.com/lancealx/nanocli/cmd"

func main() {
	cmd.Execute()
}
