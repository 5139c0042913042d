package main

import "github.com/neurolab/faapipe/cmd"

func main() {
	cmd.Execute()
}
