package main

import "dial2tech_backend/internal/app"

func main() {
	app.Run()
}
