package main

import "cronsync/internal/cli"

func main() {
	cli.Execute()
}
