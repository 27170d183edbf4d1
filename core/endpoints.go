package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	m "github.com/quantopy-dev/quantopy/models"
	"github.com/quantopy-dev/quantopy/returns"
)

const (
	DefaultAddr = ":8080"
)

func GetHttpServer(sc ServiceContext, addr string) *http.Server {
	if addr == "" {
		addr = DefaultAddr
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(sc.Logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Get("/ping", ping)
		r.Get("/periods", getAnalysisSettings)

		r.Post("/series/analytics", postSeriesAnalytics)
		r.Post("/table/analytics", postTableAnalytics)

		r.Get("/symbols", func(w http.ResponseWriter, req *http.Request) { getSymbols(w, sc) })
		r.Post("/symbols", func(w http.ResponseWriter, req *http.Request) { postSymbol(w, req, sc) })
		r.Post("/symbols/{symbol}/prices", func(w http.ResponseWriter, req *http.Request) { postSymbolPrices(w, req, sc) })

		r.Post("/analysis", func(w http.ResponseWriter, req *http.Request) { postAnalysis(w, req, sc) })

		r.Get("/groups", func(w http.ResponseWriter, req *http.Request) { getGroups(w, sc) })
		r.Post("/groups", func(w http.ResponseWriter, req *http.Request) { postGroup(w, req, sc) })
		r.Get("/groups/{id}", func(w http.ResponseWriter, req *http.Request) { getGroup(w, req, sc) })
		r.Put("/groups/{id}", func(w http.ResponseWriter, req *http.Request) { putGroup(w, req, sc) })
		r.Delete("/groups/{id}", func(w http.ResponseWriter, req *http.Request) { deleteGroup(w, req, sc) })
		r.Post("/groups/{id}/analysis", func(w http.ResponseWriter, req *http.Request) { postGroupAnalysis(w, req, sc) })
	})

	server := &http.Server{
		Addr:           addr,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return server
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request completed")
		})
	}
}

func ping(w http.ResponseWriter, _ *http.Request) {
	data := map[string]string{"message": "pong"}
	respondOk(w, http.StatusOK, &data)
}

func getAnalysisSettings(w http.ResponseWriter, _ *http.Request) {
	data := m.GetAnalysisSettingsResources()
	respondOk(w, http.StatusOK, &data)
}

func postSeriesAnalytics(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest[m.SeriesAnalyticsRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := AnalyzeSeries(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, res)
}

func postTableAnalytics(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest[m.TableAnalyticsRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := AnalyzeTable(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, res)
}

func getSymbols(w http.ResponseWriter, sc ServiceContext) {
	res, err := sc.ListSymbols()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, &res)
}

func postSymbol(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	req, err := decodeRequest[m.SymbolRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.RegisterSymbol(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusCreated, res)
}

func postSymbolPrices(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	symbol := chi.URLParam(r, "symbol")

	req, err := decodeRequest[m.PriceUploadRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.IngestPrices(symbol, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, res)
}

func postAnalysis(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	req, err := decodeRequest[m.AnalysisRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.RunAnalysis(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, res)
}

func getGroups(w http.ResponseWriter, sc ServiceContext) {
	res, err := sc.GetGroups()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, &res)
}

func postGroup(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	req, err := decodeRequest[m.GroupRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.CreateGroup(req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusCreated, res)
}

func getGroup(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	groupID, err := groupIdFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.GetGroup(groupID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, res)
}

func putGroup(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	groupID, err := groupIdFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req, err := decodeRequest[m.GroupRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.UpdateGroup(groupID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, res)
}

func deleteGroup(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	groupID, err := groupIdFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := sc.DeleteGroup(groupID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func postGroupAnalysis(w http.ResponseWriter, r *http.Request, sc ServiceContext) {
	groupID, err := groupIdFromRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req, err := decodeRequest[m.GroupAnalysisRequest](r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	res, err := sc.RunGroupAnalysis(groupID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondOk(w, http.StatusOK, res)
}

func groupIdFromRequest(r *http.Request) (int32, error) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("group id %q is not numeric", raw)
	}

	return int32(id), nil
}

func decodeRequest[T any](r *http.Request) (T, error) {
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, fmt.Errorf("error decoding request body: %w", err)
	}

	return payload, nil
}

func respondOk[T any](w http.ResponseWriter, status int, data *T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(m.GetServiceResponseOk(data))
}

func respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(m.GetServiceResponseError(err.Error()))
}

func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusForError(err), err)
}

// statusForError maps the calculation error kinds onto client errors and
// keeps everything else a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, returns.ErrInvalidInput),
		errors.Is(err, returns.ErrInsufficientData),
		errors.Is(err, returns.ErrEmptyInput),
		errors.Is(err, returns.ErrUnknownPeriod):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
