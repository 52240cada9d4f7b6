package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"logstore/internal/domain"
	"logstore/internal/platform/client"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: logstore-cli [-server url] get <key> | put <key> <value> | delete <key>")
	flag.PrintDefaults()
}

func main() {
	serverUrl := flag.String("server", "http://127.0.0.1:3000", "logstore HTTP address")
	flag.Usage = usage
	flag.Parse()

	if err := run(client.NewLogStoreClient(*serverUrl), flag.Args()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintln(os.Stderr, "Key not found")
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type store interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error
}

func run(c store, args []string) error {
	if len(args) == 0 {
		usage()
		return errors.New("missing command")
	}
	switch {
	case args[0] == "get" && len(args) == 2:
		value, err := c.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Println(value)
	case args[0] == "put" && len(args) == 3:
		if err := c.Put(args[1], args[2]); err != nil {
			return err
		}
		fmt.Println("OK")
	case args[0] == "delete" && len(args) == 2:
		if err := c.Delete(args[1]); err != nil {
			return err
		}
		fmt.Println("OK")
	default:
		usage()
		return fmt.Errorf("invalid command %q", args[0])
	}
	return nil
}
