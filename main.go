package main

import "github.com/miniftp/miniftp/cmd"

func main() {
	cmd.Execute()
}
