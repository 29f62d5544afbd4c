/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ggeraldodequeiroz/minhas-financas-backend/cmd"

func main() {
	cmd.Execute()
}
