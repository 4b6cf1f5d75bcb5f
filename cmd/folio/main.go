package main

import (
	"log"
	"os"

	cli "gitlab.com/folio-vcs/folio/internal/cli/folio"
)

func main() {
	if err := cli.NewApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
