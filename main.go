package main

import "github.com/ganga90/olive-couple-sync-sub002/cmd"

func main() {
	cmd.Execute()
}
