package main

import "github.com/yidong-blog/blog-api/cmd"

func main() {
	cmd.Execute()
}
