package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/emotune/internal/capture"
)

func main() {
	path := flag.String("out", "secret.key", "Where to write the capture key")
	flag.Parse()

	key, err := capture.GenerateKey()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := capture.WriteKey(*path, key); err != nil {
		if errors.Is(err, capture.ErrKeyExists) {
			fmt.Fprintf(os.Stderr, "Error: %s already exists, refusing to overwrite\n", *path)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}

	fmt.Printf("KEY_PATH=%s\n", *path)
}
