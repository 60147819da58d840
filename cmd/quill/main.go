package main

import "github.com/lexcodex/quill/app/cmd"

func main() {
	cmd.Execute()
}
