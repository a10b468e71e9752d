package main

import "github.com/oshokin/olt-alarms/cmd/olt-alarm-inject/cmd"

func main() {
	cmd.Execute()
}
