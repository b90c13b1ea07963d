package main

import "github.com/user/mealcal/cmd"

func main() {
	cmd.Execute()
}
