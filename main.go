package main

import (
	"R2FM/cmd"
)

func main() {
	cmd.Execute()
}
