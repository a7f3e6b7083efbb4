package main

import "github.com/endorses/wildscan/cmd"

func main() {
	cmd.Execute()
}
