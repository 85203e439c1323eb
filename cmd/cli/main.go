package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"docqa/pkg/config"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stdout)
		return 0
	}
	c := newClient(apiBaseURL())
	cmd, args := args[0], args[1:]
	switch cmd {
	case "version":
		fmt.Fprintln(stdout, "docqa cli 0.1.0")
	case "config":
		return runConfig(stdout, stderr)
	case "health":
		status, err := c.health()
		if err != nil {
			fmt.Fprintf(stderr, "health: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, status)
	case "upload":
		if len(args) < 1 {
			fmt.Fprintln(stderr, "Usage: docqa upload <file.pdf>")
			return 1
		}
		msg, err := c.upload(args[0])
		if err != nil {
			fmt.Fprintf(stderr, "upload: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, msg)
	case "ask":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Usage: docqa ask <filename> <question>")
			return 1
		}
		answer, err := c.ask(args[0], strings.Join(args[1:], " "))
		if err != nil {
			fmt.Fprintf(stderr, "ask: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, answer)
	case "documents":
		docs, err := c.documents()
		if err != nil {
			fmt.Fprintf(stderr, "documents: %v\n", err)
			return 1
		}
		if len(docs) == 0 {
			fmt.Fprintln(stdout, "(no documents)")
		}
		for _, d := range docs {
			fmt.Fprintf(stdout, "%d\t%s\n", d.ID, d.Filename)
		}
	case "chat":
		if len(args) < 1 {
			fmt.Fprintln(stderr, "Usage: docqa chat <filename>")
			return 1
		}
		return runChat(c, args[0], stdin, stdout, stderr)
	default:
		printUsage(stderr)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: docqa <command> [args]")
	fmt.Fprintln(w, "  version                  - 显示版本")
	fmt.Fprintln(w, "  config                   - 显示配置概要")
	fmt.Fprintln(w, "  health                   - 检查 API 状态")
	fmt.Fprintln(w, "  upload <file.pdf>        - 上传并索引 PDF")
	fmt.Fprintln(w, "  ask <filename> <question> - 针对文档提问")
	fmt.Fprintln(w, "  documents                - 列出已上传文档")
	fmt.Fprintln(w, "  chat <filename>          - 交互式问答，空行或 exit 退出")
	fmt.Fprintln(w, "环境变量 DOCQA_API_URL 指定服务地址（默认 http://localhost:8080）")
}

func runConfig(stdout, stderr io.Writer) int {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "api.addr=%s\n", cfg.API.Addr())
	fmt.Fprintf(stdout, "storage.upload_dir=%s\n", cfg.Storage.UploadDir)
	fmt.Fprintf(stdout, "storage.metadata.type=%s\n", cfg.Storage.Metadata.Type)
	fmt.Fprintf(stdout, "storage.vector.type=%s\n", cfg.Storage.Vector.Type)
	fmt.Fprintf(stdout, "model.llm=%s/%s\n", cfg.Model.LLM.Provider, cfg.Model.LLM.Model)
	return 0
}

func runChat(c *client, filename string, stdin io.Reader, stdout, stderr io.Writer) int {
	reader := bufio.NewReader(stdin)
	for {
		fmt.Fprint(stdout, "> ")
		line, err := reader.ReadString('\n')
		q := strings.TrimSpace(line)
		if q == "" || q == "exit" {
			return 0
		}
		answer, askErr := c.ask(filename, q)
		if askErr != nil {
			fmt.Fprintf(stderr, "ask: %v\n", askErr)
		} else {
			fmt.Fprintln(stdout, answer)
		}
		if err != nil {
			return 0
		}
	}
}
