package main

import (
	statecharts "github.com/Lecrapouille/PlantUMLStatecharts"
)

func main() {
	statecharts.Main()
}
