package booking

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Flex decodes a JSON string or number into its textual form. Backend ids and amounts come as either.
type Flex string

func (f *Flex) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Flex(strings.TrimSpace(s))
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*f = Flex(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = Flex(n.String())
	}
	return nil
}

func (f Flex) String() string {
	return string(f)
}

// Names decodes a string, a list of strings or a list of objects with a "nome" field.
type Names []string

func (n *Names) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = splitNames(s)
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(Names, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var named struct {
			Nome string `json:"nome"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &named); err == nil {
			if s := firstNonEmpty(named.Nome, named.Name); s != "" {
				out = append(out, s)
			}
		}
	}
	*n = out
	return nil
}

func splitNames(s string) Names {
	var out Names
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type Service struct {
	ID          Flex   `json:"id"`
	Name        string `json:"nome"`
	Category    string `json:"categoria,omitempty"`
	Duration    Flex   `json:"duracaoEmMinutos,omitempty"`
	Price       Flex   `json:"valor,omitempty"`
	Description string `json:"descricao,omitempty"`
}

type Professional struct {
	ID          Flex   `json:"id"`
	Name        string `json:"nome"`
	Nickname    string `json:"apelido,omitempty"`
	Category    string `json:"categoria,omitempty"`
	Specialties Names  `json:"especialidades,omitempty"`
}

// Ref is the compact form of an entity nested in a booking.
type Ref struct {
	ID   Flex   `json:"id,omitempty"`
	Name string `json:"nome,omitempty"`
}

type Booking struct {
	ID           Flex   `json:"id"`
	Start        string `json:"dataHoraInicio,omitempty"`
	End          string `json:"dataHoraFim,omitempty"`
	Duration     Flex   `json:"duracaoEmMinutos,omitempty"`
	Price        Flex   `json:"valor,omitempty"`
	Status       string `json:"status,omitempty"`
	Confirmed    *bool  `json:"confirmado,omitempty"`
	Service      *Ref   `json:"servico,omitempty"`
	Professional *Ref   `json:"profissional,omitempty"`
	Client       *Ref   `json:"cliente,omitempty"`
}

// Page is a compact list response.
type Page[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page,omitempty"`
	PageSize int `json:"pageSize,omitempty"`
	Total    int `json:"total,omitempty"`
}

type ServiceQuery struct {
	Name        string
	Category    string
	VisibleOnly *bool
	Page        int
	PageSize    int
}

type BookingRequest struct {
	ServiceID       string
	ProfessionalID  string
	ClientID        string
	StartDateTime   string
	DurationMinutes string
	Price           string
	Notes           *string
	Confirmed       *bool
}

type bookingPayload struct {
	ServiceID       string  `json:"servicoId"`
	ClientID        string  `json:"clienteId"`
	ProfessionalID  string  `json:"profissionalId"`
	StartDateTime   string  `json:"dataHoraInicio"`
	DurationMinutes string  `json:"duracaoEmMinutos"`
	Price           string  `json:"valor"`
	Notes           *string `json:"observacoes"`
	Confirmed       bool    `json:"confirmado"`
}

func (r BookingRequest) payload() bookingPayload {
	confirmed := true
	if r.Confirmed != nil {
		confirmed = *r.Confirmed
	}
	return bookingPayload{
		ServiceID:       strings.TrimSpace(r.ServiceID),
		ClientID:        strings.TrimSpace(r.ClientID),
		ProfessionalID:  strings.TrimSpace(r.ProfessionalID),
		StartDateTime:   strings.TrimSpace(r.StartDateTime),
		DurationMinutes: strings.TrimSpace(r.DurationMinutes),
		Price:           strings.TrimSpace(r.Price),
		Notes:           r.Notes,
		Confirmed:       confirmed,
	}
}

// IsNumericID reports whether id is a non-empty run of ASCII digits.
func IsNumericID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	_, err := strconv.ParseUint(id, 10, 64)
	return err == nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
