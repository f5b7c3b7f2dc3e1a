package main

import (
	"github.com/cyclus/installer/cmd/cyclus-install/internal"
)

func main() {
	internal.Execute()
}
