package main

import (
	cmd "github.com/introduceourtown/townrec/cmd/townrec"
	"github.com/introduceourtown/townrec/internal"
)

var log = internal.GetLogger()

func main() {
	log.Info("Starting townrec")
	cmd.Execute()
}
