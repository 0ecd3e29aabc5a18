package main

import "github/chapool/go-txenvelope/cmd"

func main() {
	cmd.Execute()
}
