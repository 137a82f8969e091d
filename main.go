package main

import "github.com/theirongolddev/anggaran/cmd"

func main() {
	cmd.Execute()
}
