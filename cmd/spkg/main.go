package main

import "github.com/skillpkg/skillpkg/pkg/cmd"

func main() {
	cmd.Execute()
}
