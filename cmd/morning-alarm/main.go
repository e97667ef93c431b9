package main

import "github.com/oshokin/morning-alarm/cmd/morning-alarm/cmd"

func main() {
	cmd.Execute()
}
