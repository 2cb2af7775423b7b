package main

import (
	"github.com/luma/fcp/cmd"
)

func main() {
	cmd.Execute()
}
