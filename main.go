package main

import "github.com/krun-dev/krun/cmd"

func main() {
	cmd.Execute()
}
