package main

import "github.com/oshokin/morning-alarm/cmd/morning-alarm-server/cmd"

func main() {
	cmd.Execute()
}
