package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	tallyerr "github.com/amterp/tally/internal/errors"
	"github.com/amterp/tally/internal/model"
	"github.com/amterp/tally/internal/resolver"
	"github.com/amterp/tally/internal/service"
)

// maxBodyBytes bounds request bodies; counter payloads are tiny.
const maxBodyBytes = 64 << 10

// CounterResponse is a counter as returned by the API, with its 1-based
// position in the list.
type CounterResponse struct {
	ID           string `json:"id"`
	Position     int    `json:"position"`
	Name         string `json:"name"`
	InitialValue int64  `json:"initialValue"`
	Value        int64  `json:"value"`
	ColorName    string `json:"colorName"`
	ColorHex     string `json:"colorHex"`
}

func toCounterResponse(c model.Counter, position int) CounterResponse {
	return CounterResponse{
		ID:           c.ID,
		Position:     position,
		Name:         c.Name,
		InitialValue: c.InitialValue,
		Value:        c.Value,
		ColorName:    c.ColorName,
		ColorHex:     c.ColorHex,
	}
}

// toCounterResponses always returns a non-nil slice so lists encode as [].
func toCounterResponses(counters []model.Counter) []CounterResponse {
	out := make([]CounterResponse, len(counters))
	for i, c := range counters {
		out[i] = toCounterResponse(c, i+1)
	}
	return out
}

// ListCountersResponse is the JSON response for the counter list.
type ListCountersResponse struct {
	Counters []CounterResponse `json:"counters"`
}

// CounterEnvelope wraps a single counter.
type CounterEnvelope struct {
	Counter CounterResponse `json:"counter"`
}

// ColorResponse is one palette entry.
type ColorResponse struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

// ValueText carries an initial value that clients may send as a JSON number
// or as the raw text a user typed. Text that isn't a whole number becomes 0
// when the counter service parses it.
type ValueText struct {
	Text string
	Set  bool
}

// UnmarshalJSON accepts a number, a string or null.
func (v *ValueText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ValueText{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = ValueText{Text: s, Set: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("initialValue must be a number or a string")
	}
	*v = ValueText{Text: n.String(), Set: true}
	return nil
}

// CreateCounterRequest is the JSON body for creating a counter.
// Every field is optional; blanks get the usual defaults.
type CreateCounterRequest struct {
	Name         string    `json:"name" validate:"max=200"`
	InitialValue ValueText `json:"initialValue"`
	ColorName    string    `json:"colorName" validate:"max=32"`
}

// UpdateCounterRequest is the JSON body for editing a counter.
type UpdateCounterRequest struct {
	Name         *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	InitialValue ValueText `json:"initialValue"`
	ColorName    *string   `json:"colorName,omitempty" validate:"omitempty,max=32"`
}

var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Handler contains all HTTP handlers for the API.
type Handler struct {
	counters *service.CounterService
	resolver *resolver.CounterResolver
	logger   *log.Logger
}

// NewHandler creates a new handler backed by the counter service.
func NewHandler(counters *service.CounterService, logger *log.Logger) *Handler {
	return &Handler{
		counters: counters,
		resolver: resolver.NewCounterResolver(counters),
		logger:   logger,
	}
}

// RegisterRoutes sets up all API routes on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/colors", h.ListColors)

	mux.HandleFunc("GET /api/v1/counters", h.ListCounters)
	mux.HandleFunc("POST /api/v1/counters", h.CreateCounter)
	mux.HandleFunc("GET /api/v1/counters/{ref}", h.GetCounter)
	mux.HandleFunc("PATCH /api/v1/counters/{ref}", h.UpdateCounter)
	mux.HandleFunc("DELETE /api/v1/counters/{ref}", h.DeleteCounter)

	mux.HandleFunc("POST /api/v1/counters/{ref}/increment", h.stepHandler(h.counters.Increment))
	mux.HandleFunc("POST /api/v1/counters/{ref}/decrement", h.stepHandler(h.counters.Decrement))
	mux.HandleFunc("POST /api/v1/counters/{ref}/reset", h.stepHandler(h.counters.Reset))
}

// ListColors returns the palette in display order.
func (h *Handler) ListColors(w http.ResponseWriter, r *http.Request) {
	names := h.counters.AvailableColors()
	colors := make([]ColorResponse, len(names))
	for i, name := range names {
		colors[i] = ColorResponse{Name: name, Hex: model.ColorHex(name)}
	}
	JSON(w, http.StatusOK, map[string][]ColorResponse{"colors": colors})
}

// ListCounters returns every counter in order.
func (h *Handler) ListCounters(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, ListCountersResponse{Counters: toCounterResponses(h.counters.GetAll())})
}

// CreateCounter appends a new counter.
func (h *Handler) CreateCounter(w http.ResponseWriter, r *http.Request) {
	var req CreateCounterRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, err)
		return
	}

	counter := h.counters.Add(req.Name, req.InitialValue.Text, model.CanonicalColorName(req.ColorName))
	h.logger.Debug("Counter created", "id", counter.ID, "name", counter.Name)
	JSON(w, http.StatusCreated, h.envelope(counter))
}

// GetCounter returns a single counter by ID, position or name.
func (h *Handler) GetCounter(w http.ResponseWriter, r *http.Request) {
	counter, err := h.resolver.Resolve(r.PathValue("ref"))
	if err != nil {
		Error(w, err)
		return
	}
	JSON(w, http.StatusOK, h.envelope(counter))
}

// UpdateCounter edits name, color or initial value.
func (h *Handler) UpdateCounter(w http.ResponseWriter, r *http.Request) {
	counter, err := h.resolver.Resolve(r.PathValue("ref"))
	if err != nil {
		Error(w, err)
		return
	}

	var req UpdateCounterRequest
	if err := decodeBody(w, r, &req); err != nil {
		Error(w, err)
		return
	}

	input := service.EditCounterInput{Name: req.Name}
	if req.ColorName != nil {
		color := model.CanonicalColorName(*req.ColorName)
		input.ColorName = &color
	}
	if req.InitialValue.Set {
		input.InitialValueText = &req.InitialValue.Text
	}

	updated, ok := h.counters.Edit(counter.ID, input)
	if !ok {
		Error(w, tallyerr.CounterNotFound(counter.ID))
		return
	}
	JSON(w, http.StatusOK, h.envelope(updated))
}

// DeleteCounter removes a counter.
func (h *Handler) DeleteCounter(w http.ResponseWriter, r *http.Request) {
	counter, err := h.resolver.Resolve(r.PathValue("ref"))
	if err != nil {
		Error(w, err)
		return
	}

	if !h.counters.Delete(counter.ID) {
		Error(w, tallyerr.CounterNotFound(counter.ID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// stepHandler adapts increment, decrement and reset, which share a shape.
func (h *Handler) stepHandler(op func(id string) (model.Counter, bool)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counter, err := h.resolver.Resolve(r.PathValue("ref"))
		if err != nil {
			Error(w, err)
			return
		}

		updated, ok := op(counter.ID)
		if !ok {
			// Deleted between resolve and apply
			Error(w, tallyerr.CounterNotFound(counter.ID))
			return
		}
		JSON(w, http.StatusOK, h.envelope(updated))
	}
}

// envelope wraps a counter with its current position.
func (h *Handler) envelope(c model.Counter) CounterEnvelope {
	position := 0
	for i, other := range h.counters.GetAll() {
		if other.ID == c.ID {
			position = i + 1
			break
		}
	}
	return CounterEnvelope{Counter: toCounterResponse(c, position)}
}

// decodeBody reads a JSON request body into dst and validates it.
// An empty body decodes as {}.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return tallyerr.InvalidField("body", fmt.Sprintf("invalid JSON: %v", err))
	}

	if err := requestValidator.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return tallyerr.InvalidField(fe.Field(), fmt.Sprintf("must be at most %s characters", fe.Param()))
		}
		return err
	}
	return nil
}
