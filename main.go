package main

import "github.com/StinkyLord/jarinspect/cmd"

func main() {
	cmd.Execute()
}
