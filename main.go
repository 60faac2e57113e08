package main

import (
	"os"

	"github.com/repoforge/repomaker/repomaker"
)

func main() {
	repomaker.New(os.Stdout, os.Stderr).Run()
}
