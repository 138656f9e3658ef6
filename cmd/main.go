package main

import (
	"github.com/pizzadash/dispatch/internal/app"
	"github.com/pizzadash/dispatch/internal/config"
)

func main() {
	config.MustInit()
	app.MustNewApp().Run()
}
