package main

import (
	"os"

	"horse.fit/mosaic/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
