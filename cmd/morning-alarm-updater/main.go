package main

import "github.com/oshokin/morning-alarm/cmd/morning-alarm-updater/cmd"

func main() {
	cmd.Execute()
}
