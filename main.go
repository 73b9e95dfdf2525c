package main

import "github.com/landrop/landrop/cmd"

func main() {
	cmd.Execute()
}
