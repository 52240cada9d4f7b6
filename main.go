package main

import (
	"flag"
	"fmt"
	"os"

	"logstore/bootstrap"
)

func main() {
	flag.Parse()
	if _, err := bootstrap.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "logstore:", err)
		os.Exit(1)
	}
}
