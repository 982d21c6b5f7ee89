package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"soundvault/core/media"
	"soundvault/logger"
	"soundvault/storage"
)

const audioContentType = "audio/webm"

// ConvertHandler downloads the audio stream of a remote video URL and
// streams it back as a webm attachment. Converted audio is archived in
// object storage so repeat requests for the same URL skip the
// extraction tool entirely.
func (h *APIHandler) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))

	if err := h.converter.ValidateURL(rawURL); err != nil {
		switch {
		case errors.Is(err, media.ErrMissingURL):
			writeMessage(w, http.StatusBadRequest, "YouTube URL is required")
		case errors.Is(err, media.ErrHostNotAllowed):
			writeMessage(w, http.StatusBadRequest, "URL host is not allowed")
		default:
			writeMessage(w, http.StatusBadRequest, "Invalid URL")
		}
		return
	}

	objectName := h.converter.ObjectName(rawURL)
	if storage.HasConvertedAudio(r.Context(), objectName) {
		h.streamArchivedAudio(w, r, objectName)
		return
	}

	path, cleanup, err := h.converter.Download(r.Context(), rawURL)
	if err != nil {
		logger.Error("audio conversion failed",
			logger.String("url", rawURL),
			logger.ErrorField(err))
		writeMessage(w, http.StatusInternalServerError, "Failed to convert audio")
		return
	}
	defer cleanup()

	file, err := os.Open(path)
	if err != nil {
		writeServerError(w, "failed to open converted file", err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		writeServerError(w, "failed to stat converted file", err)
		return
	}

	w.Header().Set("Content-Type", audioContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="audio.webm"`)
	http.ServeContent(w, r, "audio.webm", info.ModTime(), file)

	// Archiving is best effort; the response already went out.
	h.archiveAudio(objectName, path)
}

// streamArchivedAudio serves a previously converted object directly
// from object storage.
func (h *APIHandler) streamArchivedAudio(w http.ResponseWriter, r *http.Request, objectName string) {
	object, err := storage.GetConvertedAudio(r.Context(), objectName)
	if err != nil {
		writeServerError(w, "failed to open archived audio", err)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", audioContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="audio.webm"`)
	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("archived audio stream interrupted",
			logger.String("object", objectName),
			logger.ErrorField(err))
	}
	logger.Debug("served archived audio", logger.String("object", objectName))
}

// archiveAudio uploads the temp file. Runs after the client response,
// detached from the request context; the caller's deferred cleanup
// removes the temp file afterwards.
func (h *APIHandler) archiveAudio(objectName, path string) {
	if storage.GetMinioClient() == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := storage.ArchiveConvertedAudio(ctx, objectName, path, audioContentType); err != nil {
		logger.Warn("failed to archive converted audio",
			logger.String("object", objectName),
			logger.ErrorField(err))
	}
}
