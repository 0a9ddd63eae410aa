package main

import "github.com/KaramelBytes/chefscore-cli/cmd"

func main() {
	cmd.Execute()
}
