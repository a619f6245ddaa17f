package main

import "github.com/MeKo-Tech/noisewarp/internal/cmd"

func main() {
	cmd.Execute()
}
