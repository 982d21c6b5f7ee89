package main

import (
	"soundvault/cmd"
)

func main() {
	cmd.Execute()
}
