package main

import "os"

func main() {
	NewPromptBox().Run(os.Args)
}
