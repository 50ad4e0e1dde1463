package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ==================== 确认门 ====================

// CandidateOrigin 候选来源层级
type CandidateOrigin string

const (
	OriginFuzzy     CandidateOrigin = "fuzzy"
	OriginHeuristic CandidateOrigin = "heuristic"
	OriginAI        CandidateOrigin = "ai"
)

// DecisionProvider 确认门策略
// 级联中所有非精确命中的候选在落盘前都要经过这里
type DecisionProvider interface {
	// Confirm 审核一个候选值
	// 返回最终接受的值 (可能是人工覆盖值)；ok=false 表示拒绝该候选
	Confirm(attribute, rawKey, candidate string, origin CandidateOrigin) (value string, ok bool)

	// Ask 在没有任何候选时直接征询
	// hint 为预填的最佳猜测；ok=false 表示放弃 (级联落入默认值)
	Ask(attribute, rawKey, hint string) (value string, ok bool)

	// Interactive 是否允许阻塞式人工提问 (批处理模式下为 false)
	Interactive() bool
}

// ==================== 自动确认 (批处理) ====================

// AutoConfirmProvider 非交互批处理策略：接受第一个候选，从不提问
type AutoConfirmProvider struct{}

func (AutoConfirmProvider) Confirm(_, _, candidate string, _ CandidateOrigin) (string, bool) {
	return candidate, true
}

func (AutoConfirmProvider) Ask(_, _, _ string) (string, bool) { return "", false }

func (AutoConfirmProvider) Interactive() bool { return false }

// ==================== 交互确认 ====================

// InteractiveProvider 终端交互策略
// 回车 = 接受候选；输入文本 = 覆盖 (显式覆盖永远生效)；"-" = 拒绝
type InteractiveProvider struct {
	In  io.Reader
	Out io.Writer
}

// NewInteractiveProvider 标准输入输出上的交互策略
func NewInteractiveProvider() *InteractiveProvider {
	return &InteractiveProvider{In: os.Stdin, Out: os.Stdout}
}

func (p *InteractiveProvider) Confirm(attribute, rawKey, candidate string, origin CandidateOrigin) (string, bool) {
	fmt.Fprintf(p.Out, "\n[%s] %q\n  候选 (%s): %q\n  回车接受 / 输入覆盖值 / \"-\" 拒绝: ", attribute, rawKey, origin, candidate)
	line, err := p.readLine()
	if err != nil {
		return candidate, true
	}
	switch line {
	case "":
		return candidate, true
	case "-":
		return "", false
	default:
		return line, true
	}
}

func (p *InteractiveProvider) Ask(attribute, rawKey, hint string) (string, bool) {
	fmt.Fprintf(p.Out, "\n[%s] %q\n  请输入值", attribute, rawKey)
	if hint != "" {
		fmt.Fprintf(p.Out, " (回车使用猜测 %q)", hint)
	}
	fmt.Fprint(p.Out, ": ")
	line, err := p.readLine()
	if err != nil {
		return "", false
	}
	if line == "" {
		if hint != "" {
			return hint, true
		}
		return "", false
	}
	return line, true
}

func (p *InteractiveProvider) Interactive() bool { return true }

func (p *InteractiveProvider) readLine() (string, error) {
	reader := bufio.NewReader(p.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ==================== 脚本化确认 (测试) ====================

// ScriptedAnswer 预录的一次应答
type ScriptedAnswer struct {
	Value  string
	Accept bool
}

// ScriptedProvider 测试用策略：按顺序回放预录应答
// 应答耗尽后 Confirm 接受候选、Ask 放弃
type ScriptedProvider struct {
	Answers []ScriptedAnswer
	// Calls 记录收到的询问，便于测试断言
	Calls []string
}

func (p *ScriptedProvider) next() (ScriptedAnswer, bool) {
	if len(p.Answers) == 0 {
		return ScriptedAnswer{}, false
	}
	a := p.Answers[0]
	p.Answers = p.Answers[1:]
	return a, true
}

func (p *ScriptedProvider) Confirm(attribute, rawKey, candidate string, origin CandidateOrigin) (string, bool) {
	p.Calls = append(p.Calls, fmt.Sprintf("confirm:%s:%s:%s", attribute, origin, candidate))
	a, ok := p.next()
	if !ok {
		return candidate, true
	}
	if !a.Accept {
		return "", false
	}
	if a.Value == "" {
		return candidate, true
	}
	return a.Value, true
}

func (p *ScriptedProvider) Ask(attribute, rawKey, hint string) (string, bool) {
	p.Calls = append(p.Calls, fmt.Sprintf("ask:%s:%s", attribute, rawKey))
	a, ok := p.next()
	if !ok {
		return "", false
	}
	if !a.Accept {
		return "", false
	}
	if a.Value == "" && hint != "" {
		return hint, true
	}
	return a.Value, a.Value != ""
}

func (p *ScriptedProvider) Interactive() bool { return true }
