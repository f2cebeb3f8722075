package main

import "github.com/HARSHAVARDHAN5696/genai-business-report/cmd"

func main() {
	cmd.Execute()
}
