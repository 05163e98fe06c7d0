package main

import "github.com/shiroyk/embedjs/cmd"

func main() {
	cmd.Execute()
}
