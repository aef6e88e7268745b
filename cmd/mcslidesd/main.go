package main

import "github.com/materials-commons/mcslides/cmd/mcslidesd/cmd"

func main() {
	cmd.Execute()
}
