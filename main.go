package main

import "github.com/nilfs-go/cpfile/cmd"

func main() {
	cmd.Execute()
}
