package main

import "github.com/nikogura/cv-convert/cmd"

func main() {
	cmd.Execute()
}
