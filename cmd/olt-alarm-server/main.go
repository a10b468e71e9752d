package main

import "github.com/oshokin/olt-alarms/cmd/olt-alarm-server/cmd"

func main() {
	cmd.Execute()
}
