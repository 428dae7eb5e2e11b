package main

import (
	"fmt"

	"github.com/tidechat/tidechat/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		fmt.Println(err.Error())
		return
	}
}
