// backend/src/handlers/upload_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/easysplit/backend/src/config"
	"github.com/username/easysplit/backend/src/database"
	"github.com/username/easysplit/backend/src/logger"
	"github.com/username/easysplit/backend/src/model"
	"github.com/username/easysplit/backend/src/security/validation"
	"github.com/username/easysplit/backend/src/services"
	"github.com/username/easysplit/backend/src/utils"
)

// UploadHandler moves whole trip logs across the CSV boundary: multipart
// import and file export.
type UploadHandler struct {
	settlementService services.SettlementService
}

func NewUploadHandler(settlementService services.SettlementService) *UploadHandler {
	return &UploadHandler{settlementService: settlementService}
}

func (h *UploadHandler) HandleImportExpenses(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	if err := r.ParseMultipartForm(config.Cfg.MaxUploadSizeBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "tripID", tripID, "error", err, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if fileHeader.Size > config.Cfg.MaxUploadSizeBytes {
		logger.L.Warn("Uploaded file header reports size too large", "tripID", tripID, "fileSize", fileHeader.Size, "limit", config.Cfg.MaxUploadSizeBytes)
		utils.SendJSONError(w, fmt.Sprintf("File too large, max %d MB (header check)", config.Cfg.MaxUploadSizeBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	if err := validation.ValidateFileExtension(fileHeader.Filename); err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	clientContentType := fileHeader.Header.Get("Content-Type")
	if err := validation.ValidateClientContentType(clientContentType); err != nil {
		logger.L.Warn("Invalid client-declared file type", "tripID", tripID, "contentType", clientContentType, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	detectedContentType, err := validation.ValidateFileContentByMagicBytes(file)
	if err != nil {
		logger.L.Warn("Server-side file content validation failed", "tripID", tripID, "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("Trip log validated", "tripID", tripID, "filename", fileHeader.Filename, "clientType", clientContentType, "detectedType", detectedContentType)

	result, err := h.settlementService.ImportExpenses(r.Context(), tripID, file)
	if err != nil {
		if errors.Is(err, model.ErrTripNotFound) {
			utils.SendJSONError(w, "trip not found", http.StatusNotFound)
		} else if errors.Is(err, services.ErrParsingFailed) {
			logger.L.Warn("Import failed due to CSV parsing errors", "tripID", tripID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, fmt.Sprintf("Error parsing trip log: %v", err), http.StatusBadRequest)
		} else {
			logger.L.Error("Internal error importing trip log", "tripID", tripID, "filename", fileHeader.Filename, "error", err)
			utils.SendJSONError(w, "An internal error occurred while importing the file. Please try again later.", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		logger.L.Error("Error encoding JSON response for import result", "tripID", tripID, "error", err)
	}
}

func (h *UploadHandler) HandleExportExpenses(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripID")

	trip, err := model.GetTripByID(database.DB, tripID)
	if err != nil {
		if errors.Is(err, model.ErrTripNotFound) {
			utils.SendJSONError(w, "trip not found", http.StatusNotFound)
			return
		}
		logger.L.Error("Failed to load trip", "tripID", tripID, "error", err)
		utils.SendJSONError(w, "failed to load trip", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(trip.Name)))

	if err := h.settlementService.ExportExpenses(r.Context(), tripID, w); err != nil {
		// Headers are already on the wire, all that is left is the log.
		logger.L.Error("Failed to export trip log", "tripID", tripID, "error", err)
	}
}

func exportFilename(tripName string) string {
	safe := make([]rune, 0, len(tripName))
	for _, r := range tripName {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			safe = append(safe, r)
		case r == ' ':
			safe = append(safe, '_')
		}
	}
	if len(safe) == 0 {
		return "trip_expenses.csv"
	}
	return string(safe) + "_expenses.csv"
}
