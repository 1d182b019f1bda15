package extract

import (
	"fmt"
	"strings"

	"github.com/abhisek/tcmdx/internal/rules"
)

const systemPreamble = `你是中医问诊记录员。从患者的描述中提取其明确表述存在的症状，转换为标准症状名称。
规则：
1. 只提取患者确认存在的症状；否认的症状（如"不怕冷"）不要提取。
2. 优先使用下列标准症状表中的名称；表中没有时使用简短的中医术语。
3. 若描述涉及某症状的采集维度，在 details 中给出维度与取值，取值尽量选自给定选项。
4. 没有任何症状时返回空数组。`

func buildSystemPrompt(vocab []rules.Symptom) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	if len(vocab) == 0 {
		return b.String()
	}

	b.WriteString("\n\n标准症状表：\n")
	for _, s := range vocab {
		b.WriteString("- ")
		b.WriteString(s.Name)
		for _, d := range s.Dimensions {
			if len(d.Options) > 0 {
				fmt.Fprintf(&b, "；%s（%s）", d.Name, strings.Join(d.Options, "/"))
			} else {
				fmt.Fprintf(&b, "；%s", d.Name)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
