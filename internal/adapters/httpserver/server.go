package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/booklibrary/internal/adapters/sheet"
	"github.com/phenrril/booklibrary/internal/domain"
	"github.com/phenrril/booklibrary/internal/usecase"
)

const maxImportBytes = 16 << 20

type Server struct {
	mux       *http.ServeMux
	customers *usecase.CustomerUC
}

func New(customers *usecase.CustomerUC) http.Handler {
	s := &Server{customers: customers, mux: http.NewServeMux()}
	s.routes()
	return Chain(s.mux,
		Recovery,
		Logging,
		RequestID,
	)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/customers", s.apiCustomers)
	s.mux.HandleFunc("/api/customers/export.xlsx", s.apiCustomersExportXLSX)
	s.mux.HandleFunc("/api/customers/export.csv", s.apiCustomersExportCSV)
	s.mux.HandleFunc("/api/customers/import", s.apiCustomersImport)
	s.mux.HandleFunc("/api/customers/", s.apiCustomerByID)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, 200, map[string]any{"status": "ok"})
}

type customerRequest struct {
	Name   string `json:"name"`
	City   string `json:"city"`
	Age    int    `json:"age"`
	Pesel  string `json:"pesel"`
	Street string `json:"street"`
	AppNo  string `json:"app_no"`
}

func (s *Server) apiCustomers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		page, _ := strconv.Atoi(q.Get("page"))
		size, _ := strconv.Atoi(q.Get("page_size"))
		f := domain.CustomerFilter{Query: q.Get("q"), City: q.Get("city"), Sort: q.Get("sort"), Page: page, PageSize: size}
		list, total, err := s.customers.List(r.Context(), f)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if list == nil {
			list = []domain.Customer{}
		}
		writeJSON(w, 200, map[string]any{"items": list, "total": total})
	case http.MethodPost:
		var req customerRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
			writeJSON(w, 400, map[string]any{"error": "invalid_json", "message": err.Error()})
			return
		}
		c := &domain.Customer{Name: req.Name, City: req.City, Age: req.Age, Pesel: req.Pesel, Street: req.Street, AppNo: req.AppNo}
		if err := s.customers.Register(r.Context(), c); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 201, c)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) apiCustomerByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/customers/"), "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		c, err := s.customers.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, c)
	case http.MethodPut, http.MethodPatch:
		var patch usecase.CustomerPatch
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&patch); err != nil {
			writeJSON(w, 400, map[string]any{"error": "invalid_json", "message": err.Error()})
			return
		}
		c, err := s.customers.Update(r.Context(), id, patch)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, 200, c)
	case http.MethodDelete:
		if err := s.customers.Delete(r.Context(), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) apiCustomersExportXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	list, err := s.customers.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=customers.xlsx")
	if err := sheet.WriteXLSX(w, list); err != nil {
		log.Error().Err(err).Msg("export xlsx")
	}
}

func (s *Server) apiCustomersExportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	list, err := s.customers.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=customers.csv")
	if err := sheet.WriteCSV(w, list); err != nil {
		log.Error().Err(err).Msg("export csv")
	}
}

func (s *Server) apiCustomersImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseMultipartForm(maxImportBytes); err != nil {
		writeJSON(w, 400, map[string]any{"error": "multipart", "message": err.Error()})
		return
	}
	fh := r.MultipartForm.File["file"]
	if len(fh) == 0 {
		writeJSON(w, 400, map[string]any{"error": "file", "message": "missing file field"})
		return
	}
	f, err := fh[0].Open()
	if err != nil {
		writeJSON(w, 400, map[string]any{"error": "file", "message": err.Error()})
		return
	}
	defer f.Close()

	rows, err := sheet.ReadXLSX(io.LimitReader(f, maxImportBytes))
	if err != nil {
		writeJSON(w, 400, map[string]any{"error": "xlsx", "message": err.Error()})
		return
	}
	rep, err := s.customers.Import(r.Context(), rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, 200, rep)
}

// writeError maps domain errors onto status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ie, ok := domain.AsIntegrity(err); ok {
		writeJSON(w, 422, map[string]any{"error": "integrity", "message": ie.Error(), "violations": ie.Violations})
		return
	}
	if errors.Is(err, domain.ErrNotFound) {
		writeJSON(w, 404, map[string]any{"error": "not_found"})
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Str("request_id", RequestIDFrom(r.Context())).Msg("request failed")
	writeJSON(w, 500, map[string]any{"error": "internal"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
