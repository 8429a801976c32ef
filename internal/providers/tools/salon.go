package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/providers/booking"
	"github.com/sandevgo/svim/internal/service/catalog"
)

const (
	ToolListProfessionals           = "listar_profissionais"
	ToolListServicesForProfessional = "listar_servicos_profissional"
	ToolListServices                = "listar_servicos"
	ToolCreateBooking               = "criar_agendamento"
	ToolListBookings                = "listar_agendamentos"
)

const listProfessionalsSchema = `
{
  "type": "object",
  "properties": {
    "page": { "type": "integer", "description": "Página, começando em 1" },
    "pageSize": { "type": "integer", "description": "Itens por página (padrão 50)" }
  }
}
`

const listServicesForProfessionalSchema = `
{
  "type": "object",
  "properties": {
    "profissionalId": { "type": "string", "description": "Id numérico do profissional" },
    "page": { "type": "integer" },
    "pageSize": { "type": "integer" }
  },
  "required": ["profissionalId"]
}
`

const listServicesSchema = `
{
  "type": "object",
  "properties": {
    "nome": { "type": "string", "description": "Nome ou termo do serviço, ex.: corte, unha, barba" },
    "categoria": { "type": "string", "description": "Categoria do serviço" },
    "somenteVisiveisCliente": { "type": "boolean", "description": "Apenas serviços visíveis ao cliente" },
    "page": { "type": "integer" },
    "pageSize": { "type": "integer" }
  }
}
`

const createBookingSchema = `
{
  "type": "object",
  "properties": {
    "servicoId": { "type": "string", "description": "Id numérico do serviço" },
    "profissionalId": { "type": "string", "description": "Id numérico do profissional" },
    "clienteId": { "type": "string", "description": "Id do cliente" },
    "dataHoraInicio": { "type": "string", "description": "Início no formato YYYY-MM-DDTHH:MM:SS" },
    "duracaoEmMinutos": { "type": "string", "description": "Duração do serviço em minutos" },
    "valor": { "type": "string", "description": "Valor do serviço" },
    "observacoes": { "type": "string" },
    "confirmado": { "type": "boolean", "description": "Padrão true" }
  },
  "required": ["servicoId", "profissionalId", "clienteId", "dataHoraInicio", "duracaoEmMinutos", "valor"]
}
`

const listBookingsSchema = `
{
  "type": "object",
  "properties": {
    "dataInicio": { "type": "string", "description": "Data inicial YYYY-MM-DD" },
    "dataFim": { "type": "string", "description": "Data final YYYY-MM-DD" },
    "page": { "type": "integer" },
    "pageSize": { "type": "integer" }
  },
  "required": ["dataInicio", "dataFim"]
}
`

// BookingBackend is the part of the booking client the salon tools call.
type BookingBackend interface {
	ListProfessionals(ctx context.Context, page, pageSize int) (booking.Page[booking.Professional], error)
	ListServicesForProfessional(ctx context.Context, professionalID string, page, pageSize int) (booking.Page[booking.Service], error)
	ListServices(ctx context.Context, q booking.ServiceQuery) (booking.Page[booking.Service], error)
	CreateBooking(ctx context.Context, req booking.BookingRequest) (booking.Booking, error)
	ListBookings(ctx context.Context, startDate, endDate string, page, pageSize int) (booking.Page[booking.Booking], error)
}

type Salon struct {
	backend BookingBackend
}

func NewSalon(backend BookingBackend) *Salon {
	return &Salon{backend: backend}
}

type pageArgs struct {
	Page     booking.Flex `json:"page"`
	PageSize booking.Flex `json:"pageSize"`
}

func (p pageArgs) ints() (int, int, error) {
	page, err := optionalInt("page", p.Page)
	if err != nil {
		return 0, 0, err
	}
	size, err := optionalInt("pageSize", p.PageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func optionalInt(name string, v booking.Flex) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v.String())
	if err != nil {
		return 0, &core.ToolError{Kind: core.KindArgsInvalid, Message: name + " deve ser inteiro"}
	}
	return n, nil
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &core.ToolError{Kind: core.KindArgsInvalid, Message: fmt.Sprintf("argumentos inválidos: %v", err)}
	}
	return nil
}

func render(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}
	return string(data), nil
}

func (s *Salon) ListProfessionals(ctx context.Context, args json.RawMessage) (string, error) {
	var input pageArgs
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	page, size, err := input.ints()
	if err != nil {
		return "", err
	}

	out, err := s.backend.ListProfessionals(ctx, page, size)
	if err != nil {
		return "", err
	}
	return render(out)
}

func (s *Salon) ListServicesForProfessional(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		ProfessionalID booking.Flex `json:"profissionalId"`
		pageArgs
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if input.ProfessionalID == "" {
		return "", &core.ToolError{Kind: core.KindArgsInvalid, Message: "profissional não informado", Missing: []string{"profissionalId"}}
	}
	page, size, err := input.ints()
	if err != nil {
		return "", err
	}

	out, err := s.backend.ListServicesForProfessional(ctx, input.ProfessionalID.String(), page, size)
	if err != nil {
		return "", err
	}
	return render(out)
}

func (s *Salon) ListServices(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		Name        string `json:"nome"`
		Category    string `json:"categoria"`
		VisibleOnly *bool  `json:"somenteVisiveisCliente"`
		pageArgs
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	page, size, err := input.ints()
	if err != nil {
		return "", err
	}

	q := booking.ServiceQuery{
		Name:        catalog.Normalize(strings.TrimSpace(input.Name)),
		Category:    catalog.Normalize(strings.TrimSpace(input.Category)),
		VisibleOnly: input.VisibleOnly,
		Page:        page,
		PageSize:    size,
	}
	out, err := s.backend.ListServices(ctx, q)
	if err != nil {
		return "", err
	}
	return render(out)
}

func (s *Salon) CreateBooking(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		ServiceID       booking.Flex `json:"servicoId"`
		ProfessionalID  booking.Flex `json:"profissionalId"`
		ClientID        booking.Flex `json:"clienteId"`
		StartDateTime   string       `json:"dataHoraInicio"`
		DurationMinutes booking.Flex `json:"duracaoEmMinutos"`
		Price           booking.Flex `json:"valor"`
		Notes           *string      `json:"observacoes"`
		Confirmed       *bool        `json:"confirmado"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	req := booking.BookingRequest{
		ServiceID:       input.ServiceID.String(),
		ProfessionalID:  input.ProfessionalID.String(),
		ClientID:        input.ClientID.String(),
		StartDateTime:   input.StartDateTime,
		DurationMinutes: input.DurationMinutes.String(),
		Price:           input.Price.String(),
		Notes:           input.Notes,
		Confirmed:       input.Confirmed,
	}
	if err := req.Validate(); err != nil {
		return "", err
	}

	out, err := s.backend.CreateBooking(ctx, req)
	if err != nil {
		return "", err
	}
	return render(map[string]any{"agendamento": out})
}

func (s *Salon) ListBookings(ctx context.Context, args json.RawMessage) (string, error) {
	var input struct {
		StartDate string `json:"dataInicio"`
		EndDate   string `json:"dataFim"`
		pageArgs
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}

	var missing []string
	if strings.TrimSpace(input.StartDate) == "" {
		missing = append(missing, "dataInicio")
	}
	if strings.TrimSpace(input.EndDate) == "" {
		missing = append(missing, "dataFim")
	}
	if len(missing) > 0 {
		return "", &core.ToolError{Kind: core.KindArgsInvalid, Message: "campos obrigatórios ausentes", Missing: missing}
	}
	page, size, err := input.ints()
	if err != nil {
		return "", err
	}

	out, err := s.backend.ListBookings(ctx, input.StartDate, input.EndDate, page, size)
	if err != nil {
		return "", err
	}
	return render(out)
}

func (s *Salon) GetDefinitions() map[string]Definition {
	return map[string]Definition{
		ToolListProfessionals: {
			"Lista os profissionais do salão de forma paginada.",
			listProfessionalsSchema, s.ListProfessionals,
		},
		ToolListServicesForProfessional: {
			"Lista os serviços oferecidos por um profissional específico.",
			listServicesForProfessionalSchema, s.ListServicesForProfessional,
		},
		ToolListServices: {
			"Lista serviços filtrando por nome, categoria e visibilidade.",
			listServicesSchema, s.ListServices,
		},
		ToolCreateBooking: {
			"Cria um agendamento com serviço, profissional, cliente, início, duração e valor.",
			createBookingSchema, s.CreateBooking,
		},
		ToolListBookings: {
			"Lista os agendamentos entre uma data inicial e uma data final.",
			listBookingsSchema, s.ListBookings,
		},
	}
}
