package main

import "admhist/cmd"

func main() {
	cmd.Execute()
}
