package main

import (
	"github.com/bibhubhatta/wecare/cmd/pantry-cli/commands"
	"github.com/bibhubhatta/wecare/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
