package main

import "github.com/lockdiff/lockdiff/cmd"

func main() {
	cmd.Execute()
}
