package main

import "github.com/KaramelBytes/lifeexp-cli/cmd"

func main() {
	cmd.Execute()
}
