// chatgw 多 Provider 聊天网关的命令行入口
//
//	chatgw chat --config chatgw.yaml --stream "讲个笑话"
//	chatgw chat --mock "你好"
//	chatgw providers
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}
	Execute()
}
