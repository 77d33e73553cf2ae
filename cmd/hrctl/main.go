package main

import "github.com/ashdev101/mongo-rag/cmd/hrctl/cmd"

func main() {
	cmd.Execute()
}
