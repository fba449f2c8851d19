package main

import "github.com/ValentinKolb/ttlkv/cmd"

func main() {
	cmd.Execute()
}
