package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sandevgo/svim/internal/core"
	"github.com/sandevgo/svim/internal/providers/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	serviceQuery booking.ServiceQuery
	created      *booking.BookingRequest
	professional string
	pageSize     int
	err          error
}

func (f *fakeBackend) ListProfessionals(_ context.Context, page, pageSize int) (booking.Page[booking.Professional], error) {
	f.pageSize = pageSize
	return booking.Page[booking.Professional]{Items: []booking.Professional{{ID: "7", Name: "Ana"}}, Page: page}, f.err
}

func (f *fakeBackend) ListServicesForProfessional(_ context.Context, id string, _, _ int) (booking.Page[booking.Service], error) {
	f.professional = id
	return booking.Page[booking.Service]{Items: []booking.Service{{ID: "3", Name: "Corte"}}}, f.err
}

func (f *fakeBackend) ListServices(_ context.Context, q booking.ServiceQuery) (booking.Page[booking.Service], error) {
	f.serviceQuery = q
	return booking.Page[booking.Service]{Items: []booking.Service{{ID: "3", Name: "Corte", Duration: "60", Price: "80"}}}, f.err
}

func (f *fakeBackend) CreateBooking(_ context.Context, req booking.BookingRequest) (booking.Booking, error) {
	f.created = &req
	return booking.Booking{ID: "99", Start: req.StartDateTime, Status: "AGENDADO"}, f.err
}

func (f *fakeBackend) ListBookings(_ context.Context, _, _ string, _, _ int) (booking.Page[booking.Booking], error) {
	return booking.Page[booking.Booking]{Items: []booking.Booking{}}, f.err
}

func invoke(t *testing.T, backend *fakeBackend, name, args string) string {
	t.Helper()
	defs := NewSalon(backend).GetDefinitions()
	def, ok := defs[name]
	require.True(t, ok, name)

	out, err := NewFunc(name, def).Invoke(context.Background(), json.RawMessage(args))
	require.NoError(t, err, "tool errors are returned as payloads")
	return out
}

func errorPayload(t *testing.T, out string) core.ToolError {
	t.Helper()
	var te core.ToolError
	require.NoError(t, json.Unmarshal([]byte(out), &te))
	return te
}

func TestSalon_Definitions(t *testing.T) {
	tools := Invokables(NewSalon(&fakeBackend{}).GetDefinitions())
	require.Len(t, tools, 5)

	names := make([]string, len(tools))
	for i, tool := range tools {
		def := tool.Definition()
		names[i] = def.Function.Name
		assert.Equal(t, "function", def.Type)
		assert.True(t, json.Valid(def.Function.Parameters), def.Function.Name)
	}
	assert.Equal(t, []string{
		ToolCreateBooking, ToolListBookings, ToolListProfessionals, ToolListServices, ToolListServicesForProfessional,
	}, names)
}

func TestSalon_ListServicesNormalizesTerms(t *testing.T) {
	backend := &fakeBackend{}
	out := invoke(t, backend, ToolListServices, `{"nome":"Cortar o Cabelo","categoria":"Hidratação","page":"2"}`)

	assert.Equal(t, "corte", backend.serviceQuery.Name)
	assert.Equal(t, "hidratacao", backend.serviceQuery.Category)
	assert.Equal(t, 2, backend.serviceQuery.Page)
	assert.Nil(t, backend.serviceQuery.VisibleOnly)
	assert.JSONEq(t, `{"items":[{"id":"3","nome":"Corte","duracaoEmMinutos":"60","valor":"80"}]}`, out)
}

func TestSalon_ListProfessionalsPaging(t *testing.T) {
	backend := &fakeBackend{}
	invoke(t, backend, ToolListProfessionals, `{"pageSize":10}`)
	assert.Equal(t, 10, backend.pageSize)

	out := invoke(t, backend, ToolListProfessionals, `{"pageSize":"dez"}`)
	assert.Equal(t, core.KindArgsInvalid, errorPayload(t, out).Kind)
}

func TestSalon_ListServicesForProfessional(t *testing.T) {
	backend := &fakeBackend{}
	invoke(t, backend, ToolListServicesForProfessional, `{"profissionalId":12}`)
	assert.Equal(t, "12", backend.professional)

	out := invoke(t, backend, ToolListServicesForProfessional, `{}`)
	te := errorPayload(t, out)
	assert.Equal(t, core.KindArgsInvalid, te.Kind)
	assert.Equal(t, []string{"profissionalId"}, te.Missing)
}

func TestSalon_CreateBooking(t *testing.T) {
	tests := []struct {
		name        string
		args        string
		wantKind    core.ErrorKind
		wantMissing []string
	}{
		{
			name:        "missing fields",
			args:        `{"servicoId":"3","profissionalId":7}`,
			wantKind:    core.KindArgsInvalid,
			wantMissing: []string{"clienteId", "dataHoraInicio", "duracaoEmMinutos", "valor"},
		},
		{
			name:     "non numeric professional",
			args:     `{"servicoId":"3","profissionalId":"Ana","clienteId":"5","dataHoraInicio":"2025-03-11T15:00:00","duracaoEmMinutos":60,"valor":80}`,
			wantKind: core.KindInvalidID,
		},
		{
			name:     "malformed json",
			args:     `{"servicoId":`,
			wantKind: core.KindArgsInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{}
			out := invoke(t, backend, ToolCreateBooking, tt.args)
			te := errorPayload(t, out)
			assert.Equal(t, tt.wantKind, te.Kind)
			assert.Equal(t, tt.wantMissing, te.Missing)
			assert.Equal(t, ToolCreateBooking, te.Tool)
			assert.Nil(t, backend.created, "backend not called")
		})
	}
}

func TestSalon_CreateBookingSuccess(t *testing.T) {
	backend := &fakeBackend{}
	out := invoke(t, backend, ToolCreateBooking,
		`{"servicoId":3,"profissionalId":"7","clienteId":"5","dataHoraInicio":"2025-03-11T15:00:00","duracaoEmMinutos":60,"valor":80.0}`)

	require.NotNil(t, backend.created)
	assert.Equal(t, "3", backend.created.ServiceID)
	assert.Equal(t, "60", backend.created.DurationMinutes)
	assert.Nil(t, backend.created.Confirmed)
	assert.False(t, core.IsErrorPayload(out))
	assert.Contains(t, out, `"agendamento"`)
}

func TestSalon_BackendErrorBecomesPayload(t *testing.T) {
	backend := &fakeBackend{err: &booking.Error{Kind: core.KindBackendError, Op: "listar_agendamentos", Status: 503}}
	out := invoke(t, backend, ToolListBookings, `{"dataInicio":"2025-03-10","dataFim":"2025-03-12"}`)

	te := errorPayload(t, out)
	assert.Equal(t, core.KindBackendError, te.Kind)
	assert.True(t, core.IsErrorPayload(out))
}

func TestSalon_ListBookingsRequiresDates(t *testing.T) {
	out := invoke(t, &fakeBackend{}, ToolListBookings, `{"dataInicio":"2025-03-10"}`)
	te := errorPayload(t, out)
	assert.Equal(t, []string{"dataFim"}, te.Missing)
}
