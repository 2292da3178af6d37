package main

import "github.com/pomclinic/intake/app"

func main() {
	app.New(nil).Run()
}
