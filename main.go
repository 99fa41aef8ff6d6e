package main

import (
	"github.com/roolsbot/roolsbot/cmd"
)

func main() {
	cmd.Execute()
}
