package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// lineReader 在独立 goroutine 中读取标准输入，使提示符等待期间
// 仍能响应退出信号。命令分发本身保持单线程。
type lineReader struct {
	lines chan string
	errs  chan error
}

func newLineReader(r io.Reader) *lineReader {
	lr := &lineReader{
		lines: make(chan string),
		errs:  make(chan error, 1),
	}

	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lr.lines <- scanner.Text()
		}
		if err := scanner.Err(); err != nil {
			lr.errs <- err
		}
		close(lr.lines)
	}()

	return lr
}

func (lr *lineReader) read(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-lr.errs:
		return "", err
	case line, ok := <-lr.lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

// prompt 输出提示后读取一行输入。
func (c *CLI) prompt(ctx context.Context, label string) (string, error) {
	fmt.Fprintf(c.out, "%s: ", label)
	return c.reader.read(ctx)
}

// promptDefault 读取一行输入，空输入时返回默认值。
func (c *CLI) promptDefault(ctx context.Context, label, fallback string) (string, error) {
	fmt.Fprintf(c.out, "%s [%s]: ", label, fallback)
	line, err := c.reader.read(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return fallback, nil
	}
	return line, nil
}

// promptFloat 读取浮点输入，空输入时返回默认值。
func (c *CLI) promptFloat(ctx context.Context, label string, fallback float64) (float64, error) {
	line, err := c.promptDefault(ctx, label, strconv.FormatFloat(fallback, 'f', -1, 64))
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, fmt.Errorf("无法解析数字 %q: %w", line, err)
	}
	return value, nil
}

// promptInt 读取整数输入，空输入时返回默认值。
func (c *CLI) promptInt(ctx context.Context, label string, fallback int) (int, error) {
	line, err := c.promptDefault(ctx, label, strconv.Itoa(fallback))
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(line)
	if err != nil {
		return 0, fmt.Errorf("无法解析整数 %q: %w", line, err)
	}
	return value, nil
}

// parseAnswer 解析 yes/no 回答，第二个返回值表示输入是否可识别。
func parseAnswer(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y":
		return true, true
	case "no", "n":
		return false, true
	default:
		return false, false
	}
}

// confirm 反复询问直到得到可识别的 yes/no 回答。
func (c *CLI) confirm(ctx context.Context, question string) (bool, error) {
	for {
		fmt.Fprintf(c.out, "\n%s (yes/no): ", question)
		line, err := c.reader.read(ctx)
		if err != nil {
			return false, err
		}
		answer, ok := parseAnswer(line)
		if ok {
			return answer, nil
		}
		c.warnf("请输入 yes 或 no")
	}
}
