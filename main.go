package main

import (
	"flag"
	"log"

	"github.com/acme/product-importer/cmd"
)

func main() {
	shouldRunServer := flag.Bool("server", false, "run the http api server")
	shouldRunTaskQueue := flag.Bool("worker", false, "run the task queue worker")
	flag.Parse()

	switch {
	case *shouldRunServer:
		if err := cmd.RunServer(); err != nil {
			log.Fatal(err)
		}
	case *shouldRunTaskQueue:
		if err := cmd.RunTaskQueue(); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatal("specify one of --server or --worker")
	}
}
