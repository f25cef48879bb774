package main

import "github.com/KaramelBytes/sheetviz-cli/cmd"

func main() {
	cmd.Execute()
}
