package main

import "github.com/Tiliavir/trivial-pomodoro/cmd"

func main() {
	cmd.Execute()
}
