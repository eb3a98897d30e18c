package main

import "purchase-reconciler/cmd"

func main() {
	cmd.Execute()
}
