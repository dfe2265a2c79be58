package main

import (
	"os"

	"github.com/xintone/xintone/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
