// cmd/screengrab/main.go
package main

import (
	"github.com/law-makers/screengrab/internal/cli"
)

func main() {
	// Signal handling and app initialization happen inside cli.Execute
	cli.Execute()
}
