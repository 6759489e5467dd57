package main

import (
	"github.com/tonmeister/pcm2mp3/cmdmain"
	_ "github.com/tonmeister/pcm2mp3/subcmd"
)

func main() {
	cmdmain.Main()
}
