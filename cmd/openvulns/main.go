package main

import "github.com/mvp-joe/openvulns/internal/cli"

func main() {
	cli.Execute()
}
