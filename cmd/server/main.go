package main

import (
	"log"

	"github.com/HanTheDev/lead-signal-pipeline/internal/cmd"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	cmd.Execute()
}
