// Package main is the entry point for the relay CLI.
package main

func main() {
	Execute()
}
