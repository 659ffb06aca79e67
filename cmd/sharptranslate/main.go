package main

import "github.com/retznutz/SharpTranslate/internal/cli"

func main() {
	cli.Execute()
}
