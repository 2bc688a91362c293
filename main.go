package main

import "github.com/mpapenbr/f1-livetiming-go/cmd"

func main() {
	cmd.Execute()
}
