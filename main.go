package main

import "github.com/alexiusacademia/timbertrace/cmd"

func main() {
	cmd.Execute()
}
