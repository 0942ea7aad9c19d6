package main

import "github.com/newbizpulse/sunbiz-crawler/cmd"

func main() {
	cmd.Execute()
}
