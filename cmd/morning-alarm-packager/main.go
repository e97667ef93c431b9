package main

import "github.com/oshokin/morning-alarm/cmd/morning-alarm-packager/cmd"

func main() {
	cmd.Execute()
}
