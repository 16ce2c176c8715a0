package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	collectdwasm "github.com/ryarnyah/collectd-wasm"
)

// parseConfigFile reads a minimal directive file into a configuration
// tree. The format is a small subset of the daemon's own: one
// directive per line, <Key args> ... </Key> for nested blocks, and #
// comments.
func parseConfigFile(path string) (*collectdwasm.ConfigItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseConfig(f)
}

type confNode struct {
	key      string
	values   []collectdwasm.ConfigValue
	children []*confNode
}

func (n *confNode) materialize() collectdwasm.ConfigItem {
	item := collectdwasm.ConfigItem{Key: n.key, Values: n.values}
	for _, c := range n.children {
		item.Children = append(item.Children, c.materialize())
	}
	return item
}

func parseConfig(r io.Reader) (*collectdwasm.ConfigItem, error) {
	root := &confNode{key: "collectd-wasm"}
	stack := []*confNode{root}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		switch {
		case strings.HasPrefix(text, "</"):
			key := strings.TrimSuffix(strings.TrimPrefix(text, "</"), ">")
			top := stack[len(stack)-1]
			if len(stack) == 1 || !strings.EqualFold(top.key, key) {
				return nil, fmt.Errorf("line %d: unexpected closing tag %q", line, key)
			}
			stack = stack[:len(stack)-1]

		case strings.HasPrefix(text, "<"):
			fields, err := splitDirective(strings.TrimSuffix(strings.TrimPrefix(text, "<"), ">"))
			if err != nil || len(fields) == 0 {
				return nil, fmt.Errorf("line %d: malformed block tag", line)
			}
			node := &confNode{key: fields[0], values: classifyValues(fields[1:])}
			top := stack[len(stack)-1]
			top.children = append(top.children, node)
			stack = append(stack, node)

		default:
			fields, err := splitDirective(text)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", line, err)
			}
			top := stack[len(stack)-1]
			top.children = append(top.children, &confNode{
				key:    fields[0],
				values: classifyValues(fields[1:]),
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("unclosed block %q", stack[len(stack)-1].key)
	}

	item := root.materialize()
	return &item, nil
}

// splitDirective splits on whitespace, honoring double quotes.
func splitDirective(s string) ([]string, error) {
	var out []string
	for i := 0; i < len(s); {
		switch {
		case s[i] == ' ' || s[i] == '\t':
			i++
		case s[i] == '"':
			end := strings.IndexByte(s[i+1:], '"')
			if end < 0 {
				return nil, fmt.Errorf("unterminated quote")
			}
			// Quoted tokens stay strings even when they look numeric.
			out = append(out, "\""+s[i+1:i+1+end])
			i += end + 2
		default:
			end := strings.IndexAny(s[i:], " \t")
			if end < 0 {
				end = len(s) - i
			}
			out = append(out, s[i:i+end])
			i += end
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty directive")
	}
	return out, nil
}

func classifyValues(fields []string) []collectdwasm.ConfigValue {
	var out []collectdwasm.ConfigValue
	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "\""):
			out = append(out, collectdwasm.StringValue(f[1:]))
		case strings.EqualFold(f, "true"):
			out = append(out, collectdwasm.BooleanValue(true))
		case strings.EqualFold(f, "false"):
			out = append(out, collectdwasm.BooleanValue(false))
		default:
			if n, err := strconv.ParseFloat(f, 64); err == nil {
				out = append(out, collectdwasm.NumberValue(n))
			} else {
				out = append(out, collectdwasm.StringValue(f))
			}
		}
	}
	return out
}
