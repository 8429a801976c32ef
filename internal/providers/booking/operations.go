package booking

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/sandevgo/svim/internal/core"
)

func pageQuery(page, pageSize int) url.Values {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	return q
}

func (c *Client) ListProfessionals(ctx context.Context, page, pageSize int) (Page[Professional], error) {
	const op = "listar_profissionais"
	raw, err := c.get(ctx, op, "/profissionais", pageQuery(page, pageSize))
	if err != nil {
		return Page[Professional]{}, err
	}
	out, err := decodePage[Professional](raw)
	if err != nil {
		return Page[Professional]{}, invalidResponse(op, err)
	}
	return out, nil
}

func (c *Client) ListServicesForProfessional(ctx context.Context, professionalID string, page, pageSize int) (Page[Service], error) {
	const op = "listar_servicos_profissional"
	professionalID = strings.TrimSpace(professionalID)
	if !IsNumericID(professionalID) {
		return Page[Service]{}, &core.ToolError{Kind: core.KindInvalidID, Message: "profissionalId deve ser numérico", Tool: op}
	}

	raw, err := c.get(ctx, op, "/profissionais/"+url.PathEscape(professionalID)+"/servicos", pageQuery(page, pageSize))
	if err != nil {
		return Page[Service]{}, err
	}
	out, err := decodePage[Service](raw)
	if err != nil {
		return Page[Service]{}, invalidResponse(op, err)
	}
	compactServices(out.Items)
	return out, nil
}

func (c *Client) ListServices(ctx context.Context, q ServiceQuery) (Page[Service], error) {
	const op = "listar_servicos"
	query := pageQuery(q.Page, q.PageSize)
	if name := strings.TrimSpace(q.Name); name != "" {
		query.Set("nome", name)
	}
	if category := strings.TrimSpace(q.Category); category != "" {
		query.Set("categoria", category)
	}
	if q.VisibleOnly != nil {
		query.Set("somenteVisiveisCliente", strconv.FormatBool(*q.VisibleOnly))
	}

	raw, err := c.get(ctx, op, "/servicos", query)
	if err != nil {
		return Page[Service]{}, err
	}
	out, err := decodePage[Service](raw)
	if err != nil {
		return Page[Service]{}, invalidResponse(op, err)
	}
	compactServices(out.Items)
	return out, nil
}

// Validate reports missing required fields as ARGS_INVALID and non-numeric ids as INVALID_ID.
func (r BookingRequest) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"servicoId", r.ServiceID},
		{"profissionalId", r.ProfessionalID},
		{"clienteId", r.ClientID},
		{"dataHoraInicio", r.StartDateTime},
		{"duracaoEmMinutos", r.DurationMinutes},
		{"valor", r.Price},
	}

	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &core.ToolError{
			Kind:    core.KindArgsInvalid,
			Message: "campos obrigatórios ausentes",
			Missing: missing,
		}
	}

	for _, f := range required[:2] {
		if !IsNumericID(f.value) {
			return &core.ToolError{Kind: core.KindInvalidID, Message: f.name + " deve ser numérico"}
		}
	}
	return nil
}

// CreateBooking validates the request and posts it once, without retries.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (Booking, error) {
	const op = "criar_agendamento"
	if err := req.Validate(); err != nil {
		return Booking{}, err
	}

	raw, err := c.post(ctx, op, "/agendamentos", req.payload())
	if err != nil {
		return Booking{}, err
	}
	out, err := decodeOne[Booking](raw)
	if err != nil {
		return Booking{}, invalidResponse(op, err)
	}
	return out, nil
}

func (c *Client) ListBookings(ctx context.Context, startDate, endDate string, page, pageSize int) (Page[Booking], error) {
	const op = "listar_agendamentos"
	query := pageQuery(page, pageSize)
	query.Set("dataInicio", strings.TrimSpace(startDate))
	query.Set("dataFim", strings.TrimSpace(endDate))

	raw, err := c.get(ctx, op, "/agendamentos", query)
	if err != nil {
		return Page[Booking]{}, err
	}
	out, err := decodePage[Booking](raw)
	if err != nil {
		return Page[Booking]{}, invalidResponse(op, err)
	}
	return out, nil
}
