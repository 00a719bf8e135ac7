package main

import "portfolio-backend/cmd"

func main() {
	cmd.Run()
}
