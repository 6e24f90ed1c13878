package main

import "github.com/oshokin/shooter-remote/cmd/shooter-remote/cmd"

func main() {
	cmd.Execute()
}
