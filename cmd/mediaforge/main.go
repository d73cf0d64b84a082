package main

import "github.com/entrepeneur4lyf/mediaforge/cmd/mediaforge/cmd"

func main() {
	cmd.Execute()
}
