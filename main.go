package main

import "github.com/qrave1/PairSpeak/cmd"

func main() {
	cmd.Execute()
}
