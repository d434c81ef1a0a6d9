package main

import "github.com/gamepowerx/kekupload-go/cmd"

func main() {
	cmd.Execute()
}
