package biz

import (
	"strings"

	"github.com/kart-io/docqa/internal/docqa/store"
	docqaopts "github.com/kart-io/docqa/pkg/options/docqa"
	"github.com/kart-io/docqa/pkg/utils/errors"
)

// contextSeparator 拼接多个文本块的分隔符。
const contextSeparator = "\n\n"

// PromptAssembler 用模板拼装提示。
type PromptAssembler struct {
	template string
}

// NewPromptAssembler 创建提示拼装器，template 为空时使用默认模板。
func NewPromptAssembler(template string) (*PromptAssembler, error) {
	if template == "" {
		template = docqaopts.DefaultPromptTemplate
	}
	for _, p := range []string{docqaopts.ContextPlaceholder, docqaopts.InputPlaceholder} {
		if !strings.Contains(template, p) {
			return nil, errors.ErrInvalidTemplate.WithMessagef("prompt template is missing the %s placeholder", p)
		}
	}
	return &PromptAssembler{template: template}, nil
}

// Assemble 按检索顺序拼接上下文并填入问题。上下文为空时仍生成完整提示。
func (a *PromptAssembler) Assemble(hits []store.Hit, question string) string {
	texts := make([]string, len(hits))
	for i, h := range hits {
		texts[i] = h.Chunk.Text
	}

	// 单次替换，问题或上下文中出现的占位符不会被再次展开
	r := strings.NewReplacer(
		docqaopts.ContextPlaceholder, strings.Join(texts, contextSeparator),
		docqaopts.InputPlaceholder, question,
	)
	return r.Replace(a.template)
}
