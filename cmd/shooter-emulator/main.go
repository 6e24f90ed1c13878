package main

import "github.com/oshokin/shooter-remote/cmd/shooter-emulator/cmd"

func main() {
	cmd.Execute()
}
