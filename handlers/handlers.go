// Package handlers provides HTTP request handlers for the vademecum API
// endpoints. It includes handlers for the procedure catalog, per-entity
// lookups, localized search, health checks, and response formatting with
// input validation.
package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oroya/vademecum-api/compendium/entities"
	"github.com/oroya/vademecum-api/data"
	"github.com/oroya/vademecum-api/logging"
	"github.com/oroya/vademecum-api/validation"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(body)
}

// requireEntityID validates a path parameter as an entity id, writing a
// 400 response when invalid.
func requireEntityID(w http.ResponseWriter, r *http.Request, param string) (string, bool) {
	id, err := validation.ValidateEntityID(chi.URLParam(r, param))
	if err != nil {
		logging.Warn("Unusual user input", "param", param, "error", err)
		http.Error(w, "Invalid id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// langFromRequest picks the response language from the lang query
// parameter, falling back to the primary language.
func langFromRequest(r *http.Request) entities.Lang {
	lang, err := validation.ValidateLang(r.URL.Query().Get("lang"))
	if err != nil {
		return entities.Primary
	}
	return lang
}

// ServeProcedureIndex returns the lightweight procedure catalog
func ServeProcedureIndex(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index := container.GetIndex()
		RespondWithJSON(w, http.StatusOK, index)
	}
}

// ServeSpecialties returns the specialty list in display order
func ServeSpecialties(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialties := container.GetSpecialties()
		RespondWithJSON(w, http.StatusOK, specialties)
	}
}

// ServeAllDrugs returns the complete drug formulary
func ServeAllDrugs(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drugs := container.GetDrugs()
		RespondWithJSON(w, http.StatusOK, drugs)
	}
}

// ServeAllGuidelines returns all clinical guidelines
func ServeAllGuidelines(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guidelines := container.GetGuidelines()
		RespondWithJSON(w, http.StatusOK, guidelines)
	}
}

// ServeAllProtocols returns all protocols
func ServeAllProtocols(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		protocols := container.GetProtocols()
		RespondWithJSON(w, http.StatusOK, protocols)
	}
}

// ServeAllBlocks returns all regional block techniques
func ServeAllBlocks(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blocks := container.GetBlocks()
		RespondWithJSON(w, http.StatusOK, blocks)
	}
}

// FindProcedureByID finds a full procedure record by id
func FindProcedureByID(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireEntityID(w, r, "procedureId")
		if !ok {
			return
		}

		procedure, exists := container.GetProcedureByID(id)
		if !exists {
			http.Error(w, "Procedure not found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, http.StatusOK, procedure)
	}
}

// FindDrugByID finds a drug record by id
func FindDrugByID(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireEntityID(w, r, "drugId")
		if !ok {
			return
		}

		drug, exists := container.GetDrugByID(id)
		if !exists {
			http.Error(w, "Drug not found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, http.StatusOK, drug)
	}
}

// FindGuidelineByID finds a guideline record by id
func FindGuidelineByID(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireEntityID(w, r, "guidelineId")
		if !ok {
			return
		}

		guideline, exists := container.GetGuidelineByID(id)
		if !exists {
			http.Error(w, "Guideline not found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, http.StatusOK, guideline)
	}
}

// FindProtocolByID finds a protocol record by id
func FindProtocolByID(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireEntityID(w, r, "protocolId")
		if !ok {
			return
		}

		protocol, exists := container.GetProtocolByID(id)
		if !exists {
			http.Error(w, "Protocol not found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, http.StatusOK, protocol)
	}
}

// FindBlockByID finds a regional block record by id
func FindBlockByID(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := requireEntityID(w, r, "blockId")
		if !ok {
			return
		}

		block, exists := container.GetBlockByID(id)
		if !exists {
			http.Error(w, "Block not found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, http.StatusOK, block)
	}
}

// FindProcedures searches the procedure catalog by title in the
// requested language (case-insensitive partial match)
func FindProcedures(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := chi.URLParam(r, "term")
		if term == "" {
			http.Error(w, "Missing search term", http.StatusBadRequest)
			return
		}
		if len(term) > 100 {
			logging.Warn("Unusual user input", "term_length", len(term))
			http.Error(w, "Search term too long", http.StatusBadRequest)
			return
		}

		lang := langFromRequest(r)
		needle := strings.ToLower(term)

		index := container.GetIndex()
		var results []entities.ProcedureIndex

		for _, p := range index {
			if strings.Contains(strings.ToLower(p.Titles.Get(lang)), needle) {
				results = append(results, p)
			}
		}

		if len(results) == 0 {
			http.Error(w, "No procedures found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, http.StatusOK, results)
	}
}

// FindDrugs searches the formulary by drug name in the requested
// language (case-insensitive partial match)
func FindDrugs(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		term := chi.URLParam(r, "term")
		if term == "" {
			http.Error(w, "Missing search term", http.StatusBadRequest)
			return
		}
		if len(term) > 100 {
			logging.Warn("Unusual user input", "term_length", len(term))
			http.Error(w, "Search term too long", http.StatusBadRequest)
			return
		}

		lang := langFromRequest(r)
		needle := strings.ToLower(term)

		drugs := container.GetDrugs()
		var results []entities.Drug

		for _, d := range drugs {
			if strings.Contains(strings.ToLower(d.Name.Get(lang)), needle) {
				results = append(results, d)
			}
		}

		if len(results) == 0 {
			http.Error(w, "No drugs found", http.StatusNotFound)
			return
		}

		RespondWithJSON(w, http.StatusOK, results)
	}
}

// StatusResponse defines the structure for consistent JSON ordering
type StatusResponse struct {
	Status        string                 `json:"status"`
	State         string                 `json:"state"`
	LastUpdate    string                 `json:"last_update"`
	DataAgeHours  float64                `json:"data_age_hours"`
	UptimeSeconds float64                `json:"uptime_seconds"`
	Data          map[string]interface{} `json:"data"`
	System        map[string]interface{} `json:"system"`
}

// ServeStatus returns detailed server status information
func ServeStatus(container *data.Container) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Get memory statistics
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		uptime := time.Since(container.GetStartTime())

		index := container.GetIndex()
		lastUpdate := container.GetLastUpdated()
		isUpdating := container.IsUpdating()
		dataAge := time.Since(lastUpdate)

		var healthStatus string
		var httpStatus int
		switch {
		case len(index) == 0:
			healthStatus = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
		case container.FullApplied() && dataAge > 24*time.Hour:
			healthStatus = "degraded"
			httpStatus = http.StatusOK
		default:
			healthStatus = "healthy"
			httpStatus = http.StatusOK
		}

		response := StatusResponse{
			Status:        healthStatus,
			State:         string(container.GetState()),
			LastUpdate:    lastUpdate.Format(time.RFC3339),
			DataAgeHours:  dataAge.Hours(),
			UptimeSeconds: uptime.Seconds(),
			Data: map[string]interface{}{
				"api_version":  "1.0",
				"procedures":   len(index),
				"drugs":        len(container.GetDrugs()),
				"guidelines":   len(container.GetGuidelines()),
				"protocols":    len(container.GetProtocols()),
				"blocks":       len(container.GetBlocks()),
				"full_applied": container.FullApplied(),
				"is_updating":  isUpdating,
			},
			System: map[string]interface{}{
				"goroutines": runtime.NumGoroutine(),
				"memory": map[string]interface{}{
					"alloc_mb":       int(m.Alloc / 1024 / 1024),
					"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
					"sys_mb":         int(m.Sys / 1024 / 1024),
					"num_gc":         m.NumGC,
				},
			},
		}

		RespondWithJSON(w, httpStatus, response)
	}
}

// HealthCheckHandler adapts a HealthChecker to an HTTP endpoint
func HealthCheckHandler(checker interface {
	HealthCheck() (string, map[string]any, int)
}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, details, httpStatus := checker.HealthCheck()
		details["status"] = status
		RespondWithJSON(w, httpStatus, details)
	}
}
