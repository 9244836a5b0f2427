package main

import "DatasetGenerator/pkg/commands"

func main() {
	commands.Execute()
}
