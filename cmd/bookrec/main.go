// Command bookrec 是书籍推荐引擎的命令行入口。
//
//	bookrec [-config bookrec.yaml] <command> [flags]
//
// 命令：
//
//	import  -file books_raw.json      导入抓取的目录数据
//	similar -id <book-id> [-n 10]     相似书籍
//	search  -q <title> [-n 10]        按书名找到一本书并返回相似书籍
//	user    -id <user-id> [-n 10]     个性化推荐（数量限制在 [10, 20]）
//	view    -user <id> -book <id>     记录一次浏览
//
// 配置按 默认值 -> YAML -> BOOKREC_* 环境变量 覆盖，结果以 JSON 输出到 stdout。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "bookrec: %v\n", err)
		os.Exit(1)
	}
}
