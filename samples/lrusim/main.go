package main

import (
	"flag"

	"gitlab.com/akita/lrusim/samples/runner"
)

func main() {
	flag.Parse()

	runner := new(runner.Runner).ParseFlag().Init()

	runner.Run()
}
