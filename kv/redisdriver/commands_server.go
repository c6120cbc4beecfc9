package redisdriver

import (
	"bufio"
	"context"
	"strconv"
	"strings"
)

func (c *Conn) ScanKeys(ctx context.Context, pattern string, count int64) ([]string, error) {
	if count <= 0 {
		count = 100
	}
	var out []string
	cursor := "0"
	for {
		args := []string{"SCAN", cursor}
		if pattern != "" {
			args = append(args, "MATCH", pattern)
		}
		args = append(args, "COUNT", strconv.FormatInt(count, 10))

		r, err := c.doCtx(ctx, args...)
		if err != nil {
			return nil, err
		}
		if r.Type != respArray || len(r.Array) != 2 {
			break
		}
		cursor, _ = r.Array[0].str()
		out = append(out, r.Array[1].strs()...)
		if cursor == "" || cursor == "0" {
			break
		}
	}
	return out, nil
}

// ExecuteCommand is the escape hatch spec.md §4.5 reserves for commands
// the typed surface doesn't cover — it forwards args verbatim and renders
// the reply as a single newline-joined string.
func (c *Conn) ExecuteCommand(ctx context.Context, cmd string, args ...string) (string, error) {
	full := append([]string{cmd}, args...)
	r, err := c.doCtx(ctx, full...)
	if err != nil {
		return "", err
	}
	return renderReply(r), nil
}

func renderReply(r *reply) string {
	switch r.Type {
	case respArray:
		if r.IsNil {
			return ""
		}
		parts := make([]string, len(r.Array))
		for i, item := range r.Array {
			parts[i] = renderReply(item)
		}
		return strings.Join(parts, "\n")
	case respInteger:
		return strconv.FormatInt(r.Int, 10)
	default:
		s, _ := r.str()
		return s
	}
}

func (c *Conn) FlushDB(ctx context.Context, async bool) error {
	if async {
		_, err := c.doCtx(ctx, "FLUSHDB", "ASYNC")
		return err
	}
	_, err := c.doCtx(ctx, "FLUSHDB")
	return err
}

func (c *Conn) GetServerInfo(ctx context.Context) (map[string]string, error) {
	r, err := c.doCtx(ctx, "INFO")
	if err != nil {
		return nil, err
	}
	text, _ := r.str()
	out := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if ok {
			out[k] = v
		}
	}
	return out, nil
}
