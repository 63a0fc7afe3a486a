// The main package for the gaeta executable.
package main

import "github.com/antekone/gaeta/cmd"

func main() {
	cmd.Execute()
}
