// Package main is the entry point for the dictbatch executable.
package main

import "dictbatch/cmd"

func main() {
	cmd.Execute()
}
