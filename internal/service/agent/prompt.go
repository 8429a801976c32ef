package agent

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
	"time"
)

const defaultInstructions = `Você é a Maria, assistente do salão {{.SalonName}} e ajuda clientes a gerenciarem seus horários para atendimento.

PERSONALIDADE:
- Amigável, mas profissional
- Usa linguagem clara e feminina
- Às vezes utiliza emojis

ESPECIALIDADES:
- Agendamento de horários
- Sugestão de horários
- Especialista em todos os serviços do salão {{.SalonName}}

ESTILO DE RESPOSTA:
- Sempre faz uma pergunta por vez
- Não utiliza bullet points
- Sempre proativa

PASSOS PARA O AGENDAMENTO:
- Capturar o serviço
- Capturar o dia e horário desejado
- Capturar a preferência de profissional do cliente
- Capturar o nome e WhatsApp do cliente
- Consultar serviços e profissionais com as ferramentas antes de confirmar
- Criar o agendamento somente com todos os dados confirmados

FERRAMENTAS:
- Se uma ferramenta responder com "error", explique ao cliente e peça o dado que falta em vez de repetir a chamada
- TOOL_LIMIT significa que a ferramenta não pode mais ser usada neste turno

CLIENTE:
ID: {{.ClientID}}
Nome: {{.ClientName}}
WhatsApp: {{.ClientWhatsApp}}

KNOWLEDGE:
- Hoje é {{.Today}}
- Atendimento do salão {{.SalonName}}:
{{.OpeningHours}}
`

const DefaultOpeningHours = "Segunda à Sábado: 14h às 22h\nDomingo: 14h às 20h"

// Profile is the data rendered into the instruction block.
type Profile struct {
	SalonName      string
	ClientID       string
	ClientName     string
	ClientWhatsApp string
	OpeningHours   string
	Today          string
}

type Prompt struct {
	tmpl *template.Template
}

// NewPrompt loads the instruction template from overridePath when the file exists, otherwise
// the built-in one.
func NewPrompt(overridePath string) (*Prompt, error) {
	text := defaultInstructions
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		switch {
		case err == nil && strings.TrimSpace(string(data)) != "":
			text = string(data)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("read prompt override: %w", err)
		}
	}

	tmpl, err := template.New("instructions").Option("missingkey=zero").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}
	return &Prompt{tmpl: tmpl}, nil
}

func (p *Prompt) Render(profile Profile, now time.Time) (string, error) {
	if profile.OpeningHours == "" {
		profile.OpeningHours = DefaultOpeningHours
	}
	if profile.Today == "" {
		profile.Today = now.Format("2006-01-02") + " (" + weekdays[now.Weekday()] + ")"
	}

	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, profile); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

var weekdays = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}
