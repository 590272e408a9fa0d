package main

import "file-archiver/cmd"

func main() {
	cmd.Execute()
}
