package main

import (
	"paperscrape/cmd/paperscrape/commands"
	"paperscrape/pkg/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
