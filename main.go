package main

import (
	"os"

	"github.com/suriyel/AgentFramework/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
