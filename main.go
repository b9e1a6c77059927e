/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/deojon/studio/cmd"

func main() {
	cmd.Execute()
}
