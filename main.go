package main

import "gmb-scraper/cmd"

func main() {
	cmd.Execute()
}
