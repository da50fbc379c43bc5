package scan

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ahjaypee/se-asia-scanner/internal/vision"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a JSON body with CORS headers
func writeJSON(w http.ResponseWriter, code int, body any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// pipelineStatus maps a pipeline error to an HTTP status. Every kind is
// recoverable; the status just tells the client whose fault it was.
func pipelineStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, ErrRecognitionFailed), errors.Is(err, ErrNoAmountFound):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// handleUploadScan runs the full pipeline over an uploaded photo.
// Multipart fields: file (required), mode, from, to.
func (s *Server) handleUploadScan(w http.ResponseWriter, r *http.Request) {
	// 50MB covers high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your photo."
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No photo was selected. Please choose a photo to upload."
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "File is too large. Maximum size is 50MB. Please compress or resize your photo.",
		})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error reading photo. Please try again.",
		})
		return
	}

	mode, err := vision.ParseMode(r.FormValue("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	from := r.FormValue("from")
	to := r.FormValue("to")
	if from == "" || to == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Both 'from' and 'to' currency codes are required.",
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	outcome, err := s.service.RunPipeline(r.Context(), header.Filename, data, contentType, mode, from, to)
	if err != nil {
		slog.Error("Pipeline failed", "filename", header.Filename, "error", err)
		writeJSON(w, pipelineStatus(err), outcome)
		return
	}

	writeJSON(w, http.StatusCreated, outcome)
}

// handleConvert converts a user-edited amount, bypassing recognition.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64 `json:"amount"`
		From   string  `json:"from"`
		To     string  `json:"to"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := s.service.ConvertManualAmount(r.Context(), req.Amount, req.From, req.To)
	if err != nil {
		slog.Error("Manual conversion failed", "error", err)
		body := map[string]string{"error": err.Error()}
		if kind, ok := Kind(err); ok {
			body["kind"] = kind
		}
		writeJSON(w, pipelineStatus(err), body)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"display": result.Display(),
	})
}

// handleLatestResult returns the currently displayed result, if any.
func (s *Server) handleLatestResult(w http.ResponseWriter, r *http.Request) {
	latest := s.service.Latest()
	if latest == nil {
		corsError(w, "No result yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, latest)
}

// handleSuggestCurrency returns a location-based currency suggestion.
func (s *Server) handleSuggestCurrency(w http.ResponseWriter, r *http.Request) {
	code, ok := s.service.SuggestCurrency(r.Context())
	if !ok {
		corsError(w, "No suggestion available", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"currency": code})
}

// handleListScans returns a list of all scans
func (s *Server) handleListScans(w http.ResponseWriter, r *http.Request) {
	scans, err := s.service.ListScans()
	if err != nil {
		slog.Error("Error listing scans", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, scans)
}

// handleGetScan returns a single scan
func (s *Server) handleGetScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Scan ID required", http.StatusBadRequest)
		return
	}
	record, err := s.service.GetScan(id)
	if err != nil {
		corsError(w, "Scan not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleGetScanPhoto returns the photo for a scan
func (s *Server) handleGetScanPhoto(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Scan ID required", http.StatusBadRequest)
		return
	}
	data, contentType, err := s.service.GetScanPhoto(id)
	if err != nil {
		corsError(w, "Photo not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteScan deletes a scan
func (s *Server) handleDeleteScan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Scan ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.DeleteScan(id); err != nil {
		corsError(w, "Error deleting scan", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleListTrips returns a list of all trips
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.service.ListTrips()
	if err != nil {
		slog.Error("Error listing trips", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if trips == nil {
		trips = []*Trip{}
	}

	writeJSON(w, http.StatusOK, trips)
}

// handleCreateTrip handles trip creation
func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string   `json:"name"`
		ScanIDs []string `json:"scan_ids"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trip, err := s.service.CreateTrip(req.Name, req.ScanIDs)
	if err != nil {
		slog.Error("Error creating trip", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

// handleGetTrip returns a trip with its scans
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Trip ID required", http.StatusBadRequest)
		return
	}
	trip, scans, err := s.service.GetTripWithScans(id)
	if err != nil {
		corsError(w, "Trip not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trip":  trip,
		"scans": scans,
	})
}
