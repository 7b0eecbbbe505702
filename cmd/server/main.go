package main

import "leavehub/internal/app/server"

func main() {
	server.Run()
}
